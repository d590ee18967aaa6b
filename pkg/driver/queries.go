package driver

import "fmt"

// contextQuery returns the entity node and every outgoing neighbour. The
// CONTAINS variant picks the shortest matching name so "ASPIRIN" wins over
// "ASPIRIN VÀ CAFEIN".
func contextQuery(s Schema, exact bool) string {
	key := s.entity()
	match := fmt.Sprintf("MATCH (n:%s {%s: $name})", quote(key.label), quote(key.property))
	if !exact {
		match = fmt.Sprintf(`MATCH (n:%[1]s)
WHERE toLower(n.%[2]s) CONTAINS toLower($name)
WITH n ORDER BY size(n.%[2]s), n.%[2]s LIMIT 1`, quote(key.label), quote(key.property))
	}
	return match + `
OPTIONAL MATCH (n)-[r]->(m)
RETURN n, type(r) AS relation, m
ORDER BY relation, elementId(m)`
}

// schemaQueries lists the statements CreateIndices runs: the uniqueness
// constraints that make concurrent MERGE on entity keys safe, preceded by
// drops of the plain lookup indexes that older loads created on the same
// properties (a constraint cannot coexist with them).
func schemaQueries(s Schema) []string {
	type key struct{ name, label, property string }
	var keys []key
	switch s {
	case SchemaDisease:
		keys = []key{
			{"benh_ten", LabelDisease, "tên_bệnh"},
			{"trieu_chung_ten", LabelSymptom, "tên_bệnh"},
			{"loi_khuyen_ten", LabelAdvice, "tên_bệnh"},
			{"thuoc_ten", LabelMedication, "tên_bệnh"},
			{"dieu_tri_ten", LabelTreatment, "tên_bệnh"},
		}
	default:
		keys = []key{
			{"hoat_chat_ten", LabelActiveIngredient, "tên_hoạt_chất"},
			{"tieu_chuan_ten", LabelStandard, "tên_hoạt_chất"},
			{"loai_thuoc_ten", LabelDrugClass, "tên_loại"},
		}
	}

	out := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("DROP INDEX %s IF EXISTS", k.name))
	}
	for _, k := range keys {
		out = append(out, fmt.Sprintf("CREATE CONSTRAINT %s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			k.name, quote(k.label), quote(k.property)))
	}
	return out
}

const clearGraphQuery = `MATCH (n) DETACH DELETE n`

var (
	mergeMonographQuery = fmt.Sprintf(`MERGE (n:%[1]s {%[3]s: $name})
SET n += $ingredient
MERGE (t:%[2]s {%[3]s: $name})
SET t += $standard
MERGE (n)-[:%[4]s]->(t)`,
		quote(LabelActiveIngredient), quote(LabelStandard), quote("tên_hoạt_chất"), quote(RelHasStandard))

	mergeDrugClassQuery = fmt.Sprintf(`MATCH (n:%[1]s {%[3]s: $name})
MERGE (l:%[2]s {%[4]s: $class})
MERGE (n)-[:%[5]s]->(l)`,
		quote(LabelActiveIngredient), quote(LabelDrugClass), quote("tên_hoạt_chất"), quote("tên_loại"), quote(RelBelongsTo))

	mergeDiseaseQuery = fmt.Sprintf(`MERGE (b:%s {%s: $name})
SET b += $props`, quote(LabelDisease), quote("tên_bệnh"))

	// Associated diseases that already exist are left untouched and unlinked.
	// The marker property tells a node this MERGE created from one it matched.
	createAssociatedQuery = fmt.Sprintf(`MATCH (b:%[1]s {%[2]s: $name})
MERGE (a:%[1]s {%[2]s: $associated})
ON CREATE SET a += $props, a._created = true
WITH b, a, coalesce(a._created, false) AS created
REMOVE a._created
FOREACH (_ IN CASE WHEN created THEN [1] ELSE [] END |
  MERGE (b)-[:%[3]s]->(a))
RETURN count(CASE WHEN created THEN 1 END) AS created`, quote(LabelDisease), quote("tên_bệnh"), quote(RelAssociatedWith))
)

// mergeSatelliteQuery links a disease to a per-disease satellite node.
func mergeSatelliteQuery(label, relation string) string {
	return fmt.Sprintf(`MATCH (b:%[1]s {%[2]s: $name})
MERGE (x:%[3]s {%[2]s: $name})
SET x += $props
MERGE (b)-[:%[4]s]->(x)`, quote(LabelDisease), quote("tên_bệnh"), quote(label), quote(relation))
}
