package ingest

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Monograph CSV columns, in output order.
const (
	ColName            = "Ten_Hoat_Chat"
	ColLatinName       = "Ten_Latin"
	ColFormula         = "Cong_Thuc_Hoa_Hoc"
	ColDescription     = "Mo_Ta_Chung"
	ColProperties      = "Tinh_Chat"
	ColIdentification  = "Dinh_Tinh"
	ColAssay           = "Dinh_Luong"
	ColStorage         = "Bao_Quan"
	ColDrugClass       = "Loai_Thuoc"
	ColRequiredContent = "Ham_Luong_Yeu_Cau"
	ColImpurities      = "Tap_Chat_Va_Do_Tinh_Khiet"
	ColDissolution     = "Do_Hoa_Tan"
)

// MonographColumns lists the CSV header.
var MonographColumns = []string{
	ColName, ColLatinName, ColFormula, ColDescription,
	ColProperties, ColIdentification, ColAssay, ColStorage,
	ColDrugClass, ColRequiredContent, ColImpurities, ColDissolution,
}

// Monograph is one active-ingredient entry of the pharmacopoeia.
type Monograph struct {
	Name            string `json:"ten_hoat_chat"`
	LatinName       string `json:"ten_latin"`
	Formula         string `json:"cong_thuc_hoa_hoc"`
	Description     string `json:"mo_ta_chung"`
	Properties      string `json:"tinh_chat"`
	Identification  string `json:"dinh_tinh"`
	Assay           string `json:"dinh_luong"`
	Storage         string `json:"bao_quan"`
	DrugClass       string `json:"loai_thuoc"`
	RequiredContent string `json:"ham_luong_yeu_cau"`
	Impurities      string `json:"tap_chat_va_do_tinh_khiet"`
	Dissolution     string `json:"do_hoa_tan"`
}

func (m *Monograph) field(column string) *string {
	switch column {
	case ColName:
		return &m.Name
	case ColLatinName:
		return &m.LatinName
	case ColFormula:
		return &m.Formula
	case ColDescription:
		return &m.Description
	case ColProperties:
		return &m.Properties
	case ColIdentification:
		return &m.Identification
	case ColAssay:
		return &m.Assay
	case ColStorage:
		return &m.Storage
	case ColDrugClass:
		return &m.DrugClass
	case ColRequiredContent:
		return &m.RequiredContent
	case ColImpurities:
		return &m.Impurities
	case ColDissolution:
		return &m.Dissolution
	}
	return nil
}

// Get returns the value of a CSV column, or "" for an unknown column.
func (m Monograph) Get(column string) string {
	if p := m.field(column); p != nil {
		return *p
	}
	return ""
}

// Values returns the fields in MonographColumns order.
func (m Monograph) Values() []string {
	out := make([]string, len(MonographColumns))
	for i, col := range MonographColumns {
		out[i] = m.Get(col)
	}
	return out
}

// sectionRoutes maps a section header to the column that collects it.
// Sub-criteria are folded into a broader column under a [KEY] label.
var sectionRoutes = map[string]string{
	"TÍNH CHẤT":      ColProperties,
	"ĐỊNH TÍNH":      ColIdentification,
	"ĐỊNH LƯỢNG":     ColAssay,
	"BẢO QUẢN":       ColStorage,
	"LOẠI THUỐC":     ColDrugClass,
	"HÀM LƯỢNG":      ColRequiredContent,
	"TẠP CHẤT":       ColImpurities,
	"ĐỘ HÒA TAN":     ColDissolution,
	"PH":             ColImpurities,
	"NƯỚC":           ColImpurities,
	"MẤT KHỐI LƯỢNG": ColImpurities,
	"CẶN":            ColImpurities,
	"TRO":            ColImpurities,
	"KIM LOẠI":       ColImpurities,
	"DUNG MÔI":       ColImpurities,
	"ENDOTOXIN":      ColImpurities,
	"TIỆT KHUẨN":     ColImpurities,
	"ĐỘ TRONG":       ColImpurities,
	"TỶ TRỌNG":       ColImpurities,
	"GÓC QUAY":       ColIdentification,
	"ĐỘ NHỚT":        ColProperties,
	"ĐỘ MỊN":         ColProperties,
}

var mainHeaders = map[string]bool{
	"TÍNH CHẤT": true, "ĐỊNH TÍNH": true, "ĐỊNH LƯỢNG": true, "BẢO QUẢN": true,
	"LOẠI THUỐC": true, "HÀM LƯỢNG": true, "TẠP CHẤT": true, "ĐỘ HÒA TAN": true,
}

// headersByLength is longest first so "ĐỊNH LƯỢNG" wins over shorter
// prefixes.
var headersByLength = func() []string {
	keys := make([]string, 0, len(sectionRoutes))
	for k := range sectionRoutes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var (
	breakMarker     = "</break>"
	numberedEntry   = regexp.MustCompile(`\n\d+\.\d+\.`)
	numberingPrefix = regexp.MustCompile(`^\d+(\.\d+)+\.?\s*`)
)

// SplitMonographs splits document text into one chunk per monograph. It
// uses </break> markers when present and numbered headings such as
// "1.2." otherwise.
func SplitMonographs(text string) []string {
	if strings.Contains(text, breakMarker) {
		return strings.Split(text, breakMarker)
	}

	var chunks []string
	start := 0
	for _, loc := range numberedEntry.FindAllStringIndex(text, -1) {
		chunks = append(chunks, text[start:loc[0]])
		start = loc[0] + 1 // drop the newline, keep the numbering
	}
	return append(chunks, text[start:])
}

// ParseText parses plain document text into monographs. Chunks without a
// usable name are skipped.
func ParseText(text string) []Monograph {
	var out []Monograph
	for _, chunk := range SplitMonographs(text) {
		if m, ok := parseChunk(chunk); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseChunk(chunk string) (Monograph, bool) {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return Monograph{}, false
	}

	var lines []string
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isImageLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Monograph{}, false
	}

	name := numberingPrefix.ReplaceAllString(lines[0], "")
	name = strings.TrimSpace(strings.ReplaceAll(name, breakMarker, ""))
	if utf8.RuneCountInString(name) < 2 {
		return Monograph{}, false
	}

	b := newMonographBuilder(strings.ToUpper(CleanText(name)))
	for i := 1; i < len(lines); i++ {
		b.addLine(i, lines[i])
	}
	return b.build(), true
}

type monographBuilder struct {
	name     string
	latin    string
	sections map[string]*strings.Builder
	current  string
}

func newMonographBuilder(name string) *monographBuilder {
	return &monographBuilder{
		name:     name,
		sections: make(map[string]*strings.Builder),
		current:  ColDescription,
	}
}

func (b *monographBuilder) section(col string) *strings.Builder {
	sb, ok := b.sections[col]
	if !ok {
		sb = &strings.Builder{}
		b.sections[col] = sb
	}
	return sb
}

func (b *monographBuilder) addLine(i int, line string) {
	upper := strings.ToUpper(line)

	// The Latin name sits on one of the two lines under the heading.
	if i <= 2 && b.latin == "" && utf8.RuneCountInString(line) < 100 && !isUpper(line) && !startsWithHeader(upper) {
		b.latin = CleanText(line)
		return
	}

	if key, content, ok := matchHeader(line, upper); ok {
		b.current = sectionRoutes[key]
		sb := b.section(b.current)
		switch {
		case mainHeaders[key]:
			if content != "" {
				sb.WriteString(content + " ")
			}
		case strings.HasSuffix(strings.TrimSpace(sb.String()), "["+key+"]:"):
			sb.WriteString(content + " ")
		case content != "":
			sb.WriteString("[" + key + "]: " + content + " ")
		default:
			sb.WriteString("[" + key + "]: ")
		}
		return
	}

	b.section(b.current).WriteString(CleanText(line) + " ")
}

func startsWithHeader(upper string) bool {
	for _, key := range headersByLength {
		if strings.HasPrefix(upper, key) {
			return true
		}
	}
	return false
}

// matchHeader finds the longest header that starts line and is not followed
// by a letter. It returns the header and the cleaned content after it.
func matchHeader(line, upper string) (string, string, bool) {
	lineRunes := []rune(line)
	for _, key := range headersByLength {
		if !strings.HasPrefix(upper, key) {
			continue
		}
		n := utf8.RuneCountInString(key)
		if n > len(lineRunes) {
			continue
		}
		remainder := string(lineRunes[n:])
		if remainder != "" {
			if r, _ := utf8.DecodeRuneInString(remainder); unicode.IsLetter(r) {
				continue
			}
		}

		content := strings.TrimSpace(remainder)
		if content != "" && strings.ContainsRune(":.-", rune(content[0])) {
			content = strings.TrimSpace(content[1:])
		}
		return key, CleanText(content), true
	}
	return "", "", false
}

func (b *monographBuilder) build() Monograph {
	m := Monograph{Name: b.name, LatinName: b.latin}
	for col, sb := range b.sections {
		if p := m.field(col); p != nil {
			*p = strings.TrimSpace(sb.String())
		}
	}
	if m.Formula == "" {
		m.Formula = ExtractChemicalFormula(m.Description + " " + m.RequiredContent)
	}
	return m
}
