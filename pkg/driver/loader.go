package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/duocdien/pkg/ingest"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// LoadStats summarises a load run.
type LoadStats struct {
	Rows              int `json:"rows"`
	Loaded            int `json:"loaded"`
	Skipped           int `json:"skipped"`
	Failed            int `json:"failed"`
	AssociatedCreated int `json:"associated_created"`
	AssociatedSkipped int `json:"associated_skipped"`
}

// statement is one parameterized write. Statements that report a count
// return it in a "created" column.
type statement struct {
	query      string
	params     map[string]any
	associated bool
}

// monographStatements maps a monograph onto the pharmacopoeia schema.
func monographStatements(m ingest.Monograph) []statement {
	name := strings.TrimSpace(m.Name)
	stmts := []statement{{
		query: mergeMonographQuery,
		params: map[string]any{
			"name": name,
			"ingredient": map[string]any{
				"tên_latin":         m.LatinName,
				"công_thức_hóa_học": m.Formula,
				"mô_tả":             m.Description,
				"bảo_quản":          m.Storage,
				"tính_chất":         m.Properties,
			},
			"standard": map[string]any{
				"định_lượng":                m.Assay,
				"định_tính":                 m.Identification,
				"độ_hòa_tan":                m.Dissolution,
				"tạp_chất_và_độ_tinh_khiết": m.Impurities,
				"hàm_lượng_yêu_cầu":         m.RequiredContent,
			},
		},
	}}
	if !ingest.IsMissing(m.DrugClass) {
		stmts = append(stmts, statement{
			query:  mergeDrugClassQuery,
			params: map[string]any{"name": name, "class": strings.TrimSpace(m.DrugClass)},
		})
	}
	return stmts
}

// present reports whether every value is non-empty.
func present(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// diseaseStatements maps a disease row onto the disease schema. Each
// satellite node is written only when all of its fields are present. A row
// without the core disease fields yields no statements.
func diseaseStatements(rec ingest.DiseaseRecord, byName map[string]ingest.DiseaseRecord) []statement {
	if !present(rec.Name, rec.Description, rec.Category, rec.Cause) {
		return nil
	}
	name := rec.Name
	stmts := []statement{{
		query: mergeDiseaseQuery,
		params: map[string]any{"name": name, "props": map[string]any{
			"mô_tả_bệnh":  rec.Description,
			"loại_bệnh":   rec.Category,
			"nguyên_nhân": rec.Cause,
		}},
	}}

	satellite := func(ok bool, label, relation string, props map[string]any) {
		if ok {
			stmts = append(stmts, statement{
				query:  mergeSatelliteQuery(label, relation),
				params: map[string]any{"name": name, "props": props},
			})
		}
	}
	satellite(present(rec.CureMethod, rec.CureDepartment, rec.CureProbability), LabelTreatment, RelCuredBy, map[string]any{
		"phương_pháp":     rec.CureMethod,
		"khoa_điều_trị":   rec.CureDepartment,
		"tỉ_lệ_chữa_khỏi": rec.CureProbability,
	})
	satellite(present(rec.Symptom, rec.CheckMethod, rec.Susceptible), LabelSymptom, RelHasSymptom, map[string]any{
		"triệu_chứng":           rec.Symptom,
		"kiểm_tra":              rec.CheckMethod,
		"đối_tượng_dễ_mắc_bệnh": rec.Susceptible,
	})
	satellite(present(rec.RecommendedDrugs, rec.CommonDrugs, rec.DrugDetail), LabelMedication, RelPrescribed, map[string]any{
		"thuốc_phổ_biến":  rec.CommonDrugs,
		"thông_tin_thuốc": rec.DrugDetail,
		"đề_xuất_thuốc":   rec.RecommendedDrugs,
	})
	satellite(present(rec.ShouldEat, rec.ShouldNotEat, rec.RecommendedMeals, rec.Prevention), LabelAdvice, RelAdvisedWith, map[string]any{
		"nên_ăn_thực_phẩm_chứa":       rec.ShouldEat,
		"đề_xuất_món_ăn":              rec.RecommendedMeals,
		"không_nên_ăn_thực_phẩm_chứa": rec.ShouldNotEat,
		"cách_phòng_tránh":            rec.Prevention,
	})

	for _, assoc := range ParseAssociated(rec.Associated) {
		props := map[string]any{}
		if match, ok := byName[strings.ToLower(assoc)]; ok {
			props["mô_tả_bệnh"] = match.Description
			props["loại_bệnh"] = match.Category
			props["nguyên_nhân"] = match.Cause
		}
		stmts = append(stmts, statement{
			query:      createAssociatedQuery,
			params:     map[string]any{"name": name, "associated": assoc, "props": props},
			associated: true,
		})
	}
	return stmts
}

// ParseAssociated reads the bệnh_đi_kèm cell, which holds either one name
// or a list such as "['Viêm phổi', 'Co giật']". Names are capitalized.
func ParseAssociated(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if !strings.Contains(cell, "[") {
		return []string{Capitalize(cell)}
	}

	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(cell)
	var out []string
	for _, part := range strings.Split(cleaned, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, Capitalize(part))
		}
	}
	return out
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// LoadMonographs writes monographs into the pharmacopoeia schema. Rows are
// loaded concurrently; a failed row is counted and logged.
func (n *Neo4jDriver) LoadMonographs(ctx context.Context, monographs []ingest.Monograph) (LoadStats, error) {
	batches := make([][]statement, len(monographs))
	for i, m := range monographs {
		if !ingest.IsMissing(m.Name) {
			batches[i] = monographStatements(m)
		}
	}
	return n.load(ctx, batches)
}

// LoadDiseases writes disease rows into the disease schema.
func (n *Neo4jDriver) LoadDiseases(ctx context.Context, records []ingest.DiseaseRecord) (LoadStats, error) {
	byName := make(map[string]ingest.DiseaseRecord, len(records))
	for _, r := range records {
		key := strings.ToLower(r.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = r
		}
	}

	batches := make([][]statement, len(records))
	for i, r := range records {
		batches[i] = diseaseStatements(r, byName)
	}
	return n.load(ctx, batches)
}

func (n *Neo4jDriver) load(ctx context.Context, batches [][]statement) (LoadStats, error) {
	stats := LoadStats{Rows: len(batches)}
	var mu sync.Mutex

	fns := make([]func() error, 0, len(batches))
	for i, stmts := range batches {
		if len(stmts) == 0 {
			stats.Skipped++
			continue
		}
		fns = append(fns, func() error {
			created, skipped, err := n.writeRow(ctx, stmts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				n.logger.Warn("Failed to load row", "row", i, "error", err)
				return err
			}
			stats.Loaded++
			stats.AssociatedCreated += created
			stats.AssociatedSkipped += skipped
			return nil
		})
	}

	errs := utils.NewConcurrentExecutor(n.concurrency).Execute(ctx, fns...)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	n.logger.Info("Graph load finished",
		"rows", stats.Rows, "loaded", stats.Loaded, "skipped", stats.Skipped, "failed", stats.Failed)

	if len(fns) > 0 && stats.Failed == len(fns) {
		return stats, fmt.Errorf("every row failed: %w", errors.Join(errs...))
	}
	return stats, nil
}

// writeRow runs a row's statements in one transaction.
func (n *Neo4jDriver) writeRow(ctx context.Context, stmts []statement) (created, skipped int, err error) {
	_, err = n.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		created, skipped = 0, 0
		for _, st := range stmts {
			res, err := tx.Run(ctx, st.query, st.params)
			if err != nil {
				return nil, err
			}
			if !st.associated {
				if _, err := res.Consume(ctx); err != nil {
					return nil, err
				}
				continue
			}

			rec, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			v, _ := rec.Get("created")
			count, err := MustInt64(v, "created")
			if err != nil {
				return nil, err
			}
			if count > 0 {
				created++
			} else {
				skipped++
			}
		}
		return nil, nil
	})
	return created, skipped, wrapError("write row", err)
}
