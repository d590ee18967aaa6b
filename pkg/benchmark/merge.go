package benchmark

import (
	"regexp"
	"sort"
	"strings"

	"github.com/soundprediction/duocdien/pkg/ingest"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// MergedNoInfo is the answer of a merged group with no usable answers.
const MergedNoInfo = "Không có thông tin"

var bracketed = regexp.MustCompile(`\[(.*?)\]`)

// BracketContent returns the lowercased text inside the first [..] of q.
func BracketContent(q string) (string, bool) {
	m := bracketed.FindStringSubmatch(q)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// MergeAnswers collapses questions about the same entity and relation into
// one, whose answer joins the distinct valid answers with " | ".
//
// Exact duplicates of (question, type, answer) are removed first. Questions
// without a bracketed entity are dropped. Groups keep first-seen order and
// take their question text from the first member. Items without a relation
// group by question type, so 2-hop questions of different types stay apart.
func MergeAnswers(items []Question) []Question {
	type dedupeKey struct{ q, typ, ans string }
	seen := make(map[dedupeKey]struct{}, len(items))

	var order []string
	groups := make(map[string][]Question)
	for _, it := range items {
		k := dedupeKey{it.Question, it.QuestionType, it.Answer}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		content, ok := BracketContent(it.Question)
		if !ok {
			continue
		}
		key := content + "_" + groupRelation(it)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	out := make([]Question, 0, len(order))
	for _, key := range order {
		members := groups[key]
		base := members[0]

		var answers []string
		for _, m := range members {
			a := strings.TrimSpace(m.Answer)
			if a == "" || strings.EqualFold(a, ingest.NoInfo) {
				continue
			}
			answers = append(answers, a)
		}
		answers = utils.UniqueStrings(answers)
		sort.Strings(answers)

		merged := MergedNoInfo
		if len(answers) > 0 {
			merged = strings.Join(answers, " | ")
		}

		typ := base.QuestionType
		if typ == "" {
			typ = "default"
		}
		rel := base.Relation
		if rel == "" {
			rel = "unknown"
		}
		out = append(out, Question{
			Question:     base.Question,
			QuestionType: typ,
			Relation:     rel,
			Answer:       merged,
		})
	}
	return out
}

func groupRelation(q Question) string {
	switch {
	case q.Relation != "":
		return q.Relation
	case q.QuestionType != "":
		return q.QuestionType
	}
	return "unknown"
}

// Jaccard is |A∩B| / |A∪B| over distinct elements. It is 0 when either side is empty.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return utils.JaccardSimilarity(a, b)
}

// AnswerOverlap is the Jaccard similarity of the " | "-separated answers of a and b.
func AnswerOverlap(a, b Question) float64 {
	return Jaccard(splitAnswers(a.Answer), splitAnswers(b.Answer))
}

func splitAnswers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
