package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\ufeff"

// CSVOption configures the CSV readers.
type CSVOption func(*csvOptions)

type csvOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger that receives skipped-row warnings.
func WithLogger(logger *slog.Logger) CSVOption {
	return func(o *csvOptions) { o.logger = logger }
}

func newCSVOptions(opts []CSVOption) csvOptions {
	o := csvOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WriteMonographCSV writes monographs with a UTF-8 BOM and the fixed
// MonographColumns header. Missing values are written as NoInfo.
func WriteMonographCSV(w io.Writer, monographs []Monograph) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(MonographColumns); err != nil {
		return err
	}
	for _, m := range monographs {
		row := m.Values()
		for i, v := range row {
			v = strings.TrimSpace(v)
			if IsMissing(v) {
				v = NoInfo
			}
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMonographCSV reads a monograph CSV. Columns are matched by header
// name; only Ten_Hoat_Chat is required. Rows without a name are skipped.
func ReadMonographCSV(r io.Reader, opts ...CSVOption) ([]Monograph, error) {
	o := newCSVOptions(opts)
	var out []Monograph
	err := readRows(r, []string{ColName}, func(line int, get func(string) string) {
		m := Monograph{}
		for _, col := range MonographColumns {
			*m.field(col) = get(col)
		}
		if IsMissing(m.Name) {
			o.logger.Warn("Skipping monograph row without a name", "line", line)
			return
		}
		out = append(out, m)
	})
	return out, err
}

// Disease CSV columns.
const (
	ColDiseaseName      = "tên_bệnh"
	ColDiseaseDesc      = "mô_tả_bệnh"
	ColDiseaseCategory  = "loại_bệnh"
	ColPrevention       = "cách_phòng_tránh"
	ColCause            = "nguyên_nhân"
	ColSymptom          = "triệu_chứng"
	ColSusceptible      = "đối_tượng_dễ_mắc_bệnh"
	ColAssociated       = "bệnh_đi_kèm"
	ColCureMethod       = "phương_pháp"
	ColCureDepartment   = "khoa_điều_trị"
	ColCureProbability  = "tỉ_lệ_chữa_khỏi"
	ColCheckMethod      = "kiểm_tra"
	ColShouldEat        = "nên_ăn_thực_phẩm_chứa"
	ColShouldNotEat     = "không_nên_ăn_thực_phẩm_chứa"
	ColRecommendedMeals = "đề_xuất_món_ăn"
	ColRecommendedDrugs = "đề_xuất_thuốc"
	ColCommonDrugs      = "thuốc_phổ_biến"
	ColDrugDetail       = "thông_tin_thuốc"
)

// DiseaseRecord is one row of the disease CSV.
type DiseaseRecord struct {
	Name             string
	Description      string
	Category         string
	Prevention       string
	Cause            string
	Symptom          string
	Susceptible      string
	Associated       string
	CureMethod       string
	CureDepartment   string
	CureProbability  string
	CheckMethod      string
	ShouldEat        string
	ShouldNotEat     string
	RecommendedMeals string
	RecommendedDrugs string
	CommonDrugs      string
	DrugDetail       string
}

// ReadDiseaseCSV reads the disease CSV. Only tên_bệnh is required; "nan"
// cells are read as empty. Rows without a name are skipped.
func ReadDiseaseCSV(r io.Reader, opts ...CSVOption) ([]DiseaseRecord, error) {
	o := newCSVOptions(opts)
	var out []DiseaseRecord
	err := readRows(r, []string{ColDiseaseName}, func(line int, get func(string) string) {
		clean := func(col string) string {
			v := get(col)
			if strings.EqualFold(v, "nan") {
				return ""
			}
			return v
		}
		rec := DiseaseRecord{
			Name:             clean(ColDiseaseName),
			Description:      clean(ColDiseaseDesc),
			Category:         clean(ColDiseaseCategory),
			Prevention:       clean(ColPrevention),
			Cause:            clean(ColCause),
			Symptom:          clean(ColSymptom),
			Susceptible:      clean(ColSusceptible),
			Associated:       clean(ColAssociated),
			CureMethod:       clean(ColCureMethod),
			CureDepartment:   clean(ColCureDepartment),
			CureProbability:  clean(ColCureProbability),
			CheckMethod:      clean(ColCheckMethod),
			ShouldEat:        clean(ColShouldEat),
			ShouldNotEat:     clean(ColShouldNotEat),
			RecommendedMeals: clean(ColRecommendedMeals),
			RecommendedDrugs: clean(ColRecommendedDrugs),
			CommonDrugs:      clean(ColCommonDrugs),
			DrugDetail:       clean(ColDrugDetail),
		}
		if rec.Name == "" {
			o.logger.Warn("Skipping disease row without a name", "line", line)
			return
		}
		out = append(out, rec)
	})
	return out, err
}

// readRows parses a header row and calls fn for every data row. Cell
// values are NFC-normalized and trimmed.
func readRows(r io.Reader, required []string, fn func(line int, get func(string) string)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return csvError(err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		index[norm.NFC.String(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return &ParseError{Line: 1, Err: fmt.Errorf("%w: %s", ErrMissingColumn, col)}
		}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return csvError(err)
		}
		line, _ := cr.FieldPos(0)
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return norm.NFC.String(strings.TrimSpace(record[i]))
		}
		fn(line, get)
	}
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}
