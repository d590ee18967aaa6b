package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NoInfo fills every empty monograph field in CSV output.
const NoInfo = "không có thông tin"

var (
	chemistryReplacer = strings.NewReplacer(
		"₀", "0", "₁", "1", "₂", "2", "₃", "3", "₄", "4",
		"₅", "5", "₆", "6", "₇", "7", "₈", "8", "₉", "9",
		"½", "1/2", "⅓", "1/3", "¼", "1/4",
		"\u00a0", " ",
	)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	formulaPattern = regexp.MustCompile(`\bC\d+H\d+[A-Z0-9().]*(\.[\d/]*H\d*[A-Z0-9]*)?(\.[\d/]*[A-Z][a-z]?[A-Z0-9]*)?\b`)
	imageCaption   = regexp.MustCompile(`^hình\s*[\d.]+`)
)

// NormalizeChemistry converts subscript digits and vulgar fractions to ASCII
// and replaces non-breaking spaces.
func NormalizeChemistry(s string) string {
	if s == "" {
		return ""
	}
	return chemistryReplacer.Replace(norm.NFC.String(s))
}

// CleanText normalizes chemistry notation and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(NormalizeChemistry(s), " "))
}

// ExtractChemicalFormula returns the first Hill-style formula in s, such as
// C9H8O4, or "" when none is found.
func ExtractChemicalFormula(s string) string {
	if s == "" {
		return ""
	}
	formula := formulaPattern.FindString(NormalizeChemistry(s))
	if len(formula) > 3 && strings.ContainsAny(formula, "0123456789") {
		return formula
	}
	return ""
}

// IsMissing reports whether a field value carries no information.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	lower := strings.ToLower(v)
	return lower == "nan" || lower == NoInfo
}

func isImageLine(line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[Image") || strings.HasPrefix(line, "(Hình") {
		return true
	}
	return imageCaption.MatchString(strings.ToLower(line))
}

// isUpper reports whether s has at least one cased letter and no lowercase
// letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
