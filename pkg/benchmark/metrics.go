package benchmark

import (
	"math"
	"strings"
)

// Scores holds the three overlap metrics of one answer.
type Scores struct {
	BLEU   float64 `json:"bleu"`
	RougeL float64 `json:"rouge"`
	Meteor float64 `json:"meteor"`
}

// DefaultBLEUWeights weighs unigram and bigram precision equally.
var DefaultBLEUWeights = []float64{0.5, 0.5}

const (
	smoothingEpsilon = 0.1

	meteorAlpha = 0.9
	meteorBeta  = 3.0
	meteorGamma = 0.5
)

// Tokenize lowercases s and splits it on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// Score compares a candidate answer with the reference.
func Score(reference, candidate string) Scores {
	ref, cand := Tokenize(reference), Tokenize(candidate)
	return Scores{
		BLEU:   BLEU(ref, cand, DefaultBLEUWeights),
		RougeL: RougeL(strings.ToLower(reference), strings.ToLower(candidate)),
		Meteor: Meteor(ref, cand),
	}
}

// BLEU is sentence-level BLEU of cand against a single reference, with the
// brevity penalty. Orders with no matching n-gram are smoothed to
// epsilon/count (Chen and Cherry method 1). With no unigram match the score
// is 0.
func BLEU(ref, cand []string, weights []float64) float64 {
	if len(cand) == 0 || len(weights) == 0 {
		return 0
	}

	logSum := 0.0
	for i, w := range weights {
		n := i + 1
		matched, total := clippedMatches(ref, cand, n)
		if n == 1 && matched == 0 {
			return 0
		}
		if total == 0 {
			total = 1
		}
		p := float64(matched) / float64(total)
		if matched == 0 {
			p = smoothingEpsilon / float64(total)
		}
		logSum += w * math.Log(p)
	}
	return brevityPenalty(len(ref), len(cand)) * math.Exp(logSum)
}

func brevityPenalty(refLen, candLen int) float64 {
	if candLen > refLen {
		return 1
	}
	if candLen == 0 {
		return 0
	}
	return math.Exp(1 - float64(refLen)/float64(candLen))
}

// clippedMatches counts cand n-grams found in ref, each clipped to its
// reference count, and the number of cand n-grams.
func clippedMatches(ref, cand []string, n int) (matched, total int) {
	refCounts := ngramCounts(ref, n)
	for gram, c := range ngramCounts(cand, n) {
		total += c
		matched += min(c, refCounts[gram])
	}
	return matched, total
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// RougeL is the summary-level LCS F-measure. Both sides are split into
// sentences on "." and into words on whitespace. The LCS hit count is the
// number of distinct words in the union of the LCS of every reference sentence
// against every candidate sentence, and lengths count distinct words. The
// recall weight beta is P/R. It is 0 when either side has no words.
func RougeL(reference, candidate string) float64 {
	refSents, candSents := sentences(reference), sentences(candidate)
	m, n := distinctWords(refSents), distinctWords(candSents)
	if m == 0 || n == 0 {
		return 0
	}

	union := make(map[string]struct{})
	for _, ref := range refSents {
		for _, cand := range candSents {
			for _, w := range lcsWords(ref, cand) {
				union[w] = struct{}{}
			}
		}
	}
	if len(union) == 0 {
		return 0
	}

	r := float64(len(union)) / float64(m)
	p := float64(len(union)) / float64(n)
	beta := p / (r + 1e-12)
	return (1 + beta*beta) * r * p / (r + beta*beta*p + 1e-12)
}

func sentences(text string) [][]string {
	var out [][]string
	for _, s := range strings.Split(text, ".") {
		if words := strings.Fields(s); len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

func distinctWords(sents [][]string) int {
	seen := make(map[string]struct{})
	for _, s := range sents {
		for _, w := range s {
			seen[w] = struct{}{}
		}
	}
	return len(seen)
}

// lcsWords reconstructs one longest common subsequence of a and b, walking
// back from the end and preferring to drop a word of b on ties.
func lcsWords(a, b []string) []string {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}

	var out []string
	for i, j := len(a), len(b); i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			out = append(out, a[i-1])
			i--
			j--
		case table[i-1][j] > table[i][j-1]:
			i--
		default:
			j--
		}
	}
	return out
}

// Meteor is METEOR with exact word matching: a recall-weighted harmonic mean
// of unigram precision and recall, discounted by how fragmented the
// alignment is.
func Meteor(ref, cand []string) float64 {
	matches := alignExact(ref, cand)
	if len(matches) == 0 {
		return 0
	}

	m := float64(len(matches))
	precision := m / float64(len(cand))
	recall := m / float64(len(ref))
	fmean := precision * recall / (meteorAlpha*precision + (1-meteorAlpha)*recall)

	frag := float64(countChunks(matches)) / m
	penalty := meteorGamma * math.Pow(frag, meteorBeta)
	return (1 - penalty) * fmean
}

type alignment struct{ cand, ref int }

// alignExact pairs each candidate word, scanning from the end, with the last
// unused equal reference word. The result is ordered by candidate position.
func alignExact(ref, cand []string) []alignment {
	used := make([]bool, len(ref))
	var out []alignment
	for i := len(cand) - 1; i >= 0; i-- {
		for j := len(ref) - 1; j >= 0; j-- {
			if !used[j] && cand[i] == ref[j] {
				used[j] = true
				out = append(out, alignment{cand: i, ref: j})
				break
			}
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// countChunks counts runs of matches adjacent in both sentences.
func countChunks(matches []alignment) int {
	chunks := 1
	for i := 0; i < len(matches)-1; i++ {
		if matches[i+1].cand != matches[i].cand+1 || matches[i+1].ref != matches[i].ref+1 {
			chunks++
		}
	}
	return chunks
}
