package driver

import (
	"context"
	"fmt"
	"strings"
)

// Schema names a graph layout.
type Schema string

const (
	SchemaPharmacopoeia Schema = "pharmacopoeia"
	SchemaDisease       Schema = "disease"
)

// ParseSchema resolves a config value; "" means SchemaPharmacopoeia.
func ParseSchema(s string) (Schema, error) {
	switch Schema(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemaPharmacopoeia:
		return SchemaPharmacopoeia, nil
	case SchemaDisease:
		return SchemaDisease, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSchema, s)
}

// Pharmacopoeia labels and relationship types.
const (
	LabelActiveIngredient = "HOẠT_CHẤT"
	LabelStandard         = "TIÊU_CHUẨN"
	LabelDrugClass        = "LOẠI_THUỐC"
	RelHasStandard        = "CÓ_TIÊU_CHUẨN"
	RelBelongsTo          = "THUỘC_NHÓM"
)

// Disease labels and relationship types. Several contain spaces and must be
// backtick-quoted in Cypher.
const (
	LabelDisease      = "BỆNH"
	LabelSymptom      = "TRIỆU CHỨNG"
	LabelAdvice       = "LỜI KHUYÊN"
	LabelMedication   = "THUỐC"
	LabelTreatment    = "ĐIỀU TRỊ"
	RelHasSymptom     = "CÓ TRIỆU CHỨNG"
	RelAdvisedWith    = "ĐIỀU TRỊ VÀ PHÒNG TRÁNH CÙNG"
	RelPrescribed     = "ĐƯỢC KÊ ĐƠN"
	RelCuredBy        = "ĐƯỢC CHỮA BỞI"
	RelAssociatedWith = "ĐI KÈM VỚI BỆNH"
)

// entityKey is the label and name property that identify the entity a
// question resolves to.
type entityKey struct {
	label    string
	property string
}

func (s Schema) entity() entityKey {
	if s == SchemaDisease {
		return entityKey{label: LabelDisease, property: "tên_bệnh"}
	}
	return entityKey{label: LabelActiveIngredient, property: "tên_hoạt_chất"}
}

// ContextRecord is one node of an entity's neighbourhood. The entity itself
// has an empty Relation.
type ContextRecord struct {
	Label      string            `json:"label"`
	Relation   string            `json:"relation,omitempty"`
	Properties map[string]string `json:"properties"`
}

// GraphLookup fetches the graph context for a resolved entity name.
type GraphLookup interface {
	FetchContext(ctx context.Context, name string) ([]ContextRecord, error)
}

// QueryRunner runs read-only Cypher and returns rows as plain maps.
type QueryRunner interface {
	RunQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// quote backtick-quotes a label, relationship type or property name.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
