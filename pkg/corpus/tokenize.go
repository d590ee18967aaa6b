package corpus

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts s to NFC and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Tokenize lowercases s and splits it on whitespace. It matches the
// tokenization the index was built with, so callers must use it for queries.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(norm.NFC.String(s)))
}
