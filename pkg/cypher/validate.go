package cypher

import (
	"regexp"
	"strings"
)

var (
	// String literals, quoted identifiers and comments are blanked before
	// keyword matching so values like 'SET' or `ĐƯỢC KÊ ĐƠN` never trip a rule.
	literalPattern = regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`[^`]*`|//[^\\n]*|/\\*(?s:.*?)\\*/")

	writeClausePattern = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|SET|REMOVE|DROP)\b|\bLOAD\s+CSV\b`)
	readClausePattern  = regexp.MustCompile(`(?i)\b(MATCH|RETURN)\b`)

	// CALL followed by a name; CALL { ... } subqueries do not match.
	procedureCallPattern = regexp.MustCompile(`(?i)(?:^|[^.\w])CALL\s+([^\s({]+)`)
)

// readProcedures are the procedures a generated query may CALL. Others, apoc
// included, can run a write query passed as a string argument.
var readProcedures = map[string]bool{
	"db.labels":                    true,
	"db.relationshiptypes":         true,
	"db.propertykeys":              true,
	"db.schema.visualization":      true,
	"db.schema.nodetypeproperties": true,
	"db.schema.reltypeproperties":  true,
	"db.index.fulltext.querynodes": true,
}

// Validate accepts only read-only queries: no CREATE, MERGE, DELETE, SET,
// REMOVE, DROP or LOAD CSV, no CALL of a procedure outside readProcedures, a
// single statement, and at least one MATCH or RETURN.
func Validate(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return ErrEmptyQuery
	}

	code := literalPattern.ReplaceAllString(q, "''")
	if m := writeClausePattern.FindString(code); m != "" {
		return &UnsafeQueryError{Clause: strings.ToUpper(strings.Join(strings.Fields(m), " ")), Query: q}
	}
	for _, m := range procedureCallPattern.FindAllStringSubmatch(code, -1) {
		if !readProcedures[strings.ToLower(m[1])] {
			return &UnsafeQueryError{Clause: "CALL " + m[1], Query: q}
		}
	}
	if stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(code), ";")); strings.Contains(stmt, ";") {
		return &UnsafeQueryError{Clause: "multiple statements", Query: q}
	}
	if !readClausePattern.MatchString(code) {
		return &UnsafeQueryError{Clause: "no MATCH or RETURN", Query: q}
	}
	return nil
}
