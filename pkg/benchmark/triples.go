package benchmark

import (
	"strings"

	"github.com/soundprediction/duocdien/pkg/ingest"
)

// Relations, named the way the graph properties are.
const (
	RelLatinName       = "tên_latin"
	RelFormula         = "công_thức_hóa_học"
	RelDescription     = "mô_tả_chung"
	RelProperties      = "tính_chất"
	RelIdentification  = "định_tính"
	RelAssay           = "định_lượng"
	RelStorage         = "bảo_quản"
	RelDrugClass       = "loại_thuốc"
	RelRequiredContent = "hàm_lượng_yêu_cầu"
	RelImpurities      = "tạp_chất_và_độ_tinh_khiết"
	RelDissolution     = "độ_hòa_tan"
)

var columnRelations = map[string]string{
	ingest.ColLatinName:       RelLatinName,
	ingest.ColFormula:         RelFormula,
	ingest.ColDescription:     RelDescription,
	ingest.ColProperties:      RelProperties,
	ingest.ColIdentification:  RelIdentification,
	ingest.ColAssay:           RelAssay,
	ingest.ColStorage:         RelStorage,
	ingest.ColDrugClass:       RelDrugClass,
	ingest.ColRequiredContent: RelRequiredContent,
	ingest.ColImpurities:      RelImpurities,
	ingest.ColDissolution:     RelDissolution,
}

// RelationFor maps a monograph CSV column to its relation name.
func RelationFor(column string) (string, bool) {
	rel, ok := columnRelations[column]
	return rel, ok
}

// Triple is one (drug, relation, value) fact. Answer starts out equal to Tail.
type Triple struct {
	Header   string `json:"header"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
	Answer   string `json:"answer"`
}

var tailReplacer = strings.NewReplacer("[", "", "]", "", `"`, "", "'", "")

// CleanTail strips brackets and quotes and reports whether anything usable is left.
func CleanTail(v string) (string, bool) {
	v = strings.TrimSpace(tailReplacer.Replace(strings.TrimSpace(v)))
	if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, ingest.NoInfo) {
		return "", false
	}
	return v, true
}

// BuildTriples emits one triple per filled column of each monograph, in
// column order. Rows without a name are skipped.
func BuildTriples(monographs []ingest.Monograph) []Triple {
	var out []Triple
	for _, m := range monographs {
		header := strings.TrimSpace(m.Name)
		if header == "" {
			continue
		}
		for _, col := range ingest.MonographColumns {
			rel, ok := RelationFor(col)
			if !ok {
				continue
			}
			tail, ok := CleanTail(m.Get(col))
			if !ok {
				continue
			}
			out = append(out, Triple{Header: header, Relation: rel, Tail: tail, Answer: tail})
		}
	}
	return out
}
