// Package driver talks to the Neo4j knowledge graph.
//
// Two graph layouts are supported and selected by Schema:
//
//   - SchemaPharmacopoeia: (:HOẠT_CHẤT)-[:CÓ_TIÊU_CHUẨN]->(:TIÊU_CHUẨN) and
//     (:HOẠT_CHẤT)-[:THUỘC_NHÓM]->(:LOẠI_THUỐC), built from monograph CSVs.
//   - SchemaDisease: a (:BỆNH) node with symptom, advice, drug and treatment
//     satellites, built from the disease CSV.
//
// Neo4jDriver implements GraphLookup for the QA pipeline, runs read-only
// Cypher for the text-to-Cypher path and loads CSV records into the graph.
// All Cypher is parameterized; entity names are never interpolated.
//
// # Type Helpers
//
// type_helpers.go converts raw driver values without panicking. Values that
// do not fit the expected shape surface as *TypeConversionError.
package driver
