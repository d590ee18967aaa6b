package corpus

import (
	"maps"
	"math"
	"slices"
)

// BM25 Okapi defaults.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// BM25Params holds the Okapi parameters.
type BM25Params struct {
	K1      float64
	B       float64
	Epsilon float64
}

// DefaultBM25Params returns k1=1.5, b=0.75, epsilon=0.25.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: DefaultK1, B: DefaultB, Epsilon: DefaultEpsilon}
}

// BM25 is an Okapi BM25 index over pre-tokenized documents.
type BM25 struct {
	params   BM25Params
	docLen   []float64
	avgdl    float64
	termFreq []map[string]int
	idf      map[string]float64
}

// NewBM25 indexes docs. Terms whose IDF comes out negative (present in more
// than half the documents) are floored at epsilon times the average IDF.
func NewBM25(docs [][]string, params BM25Params) *BM25 {
	b := &BM25{
		params:   params,
		docLen:   make([]float64, len(docs)),
		termFreq: make([]map[string]int, len(docs)),
		idf:      make(map[string]float64),
	}
	if len(docs) == 0 {
		return b
	}

	docFreq := make(map[string]int)
	total := 0
	for i, doc := range docs {
		b.docLen[i] = float64(len(doc))
		total += len(doc)
		tf := make(map[string]int, len(doc))
		for _, tok := range doc {
			tf[tok]++
		}
		b.termFreq[i] = tf
		for tok := range tf {
			docFreq[tok]++
		}
	}
	b.avgdl = float64(total) / float64(len(docs))

	n := float64(len(docs))
	var idfSum float64
	var negative []string
	// sorted so the float sum, and with it the floor, is identical across builds
	for _, tok := range slices.Sorted(maps.Keys(docFreq)) {
		df := docFreq[tok]
		idf := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		b.idf[tok] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, tok)
		}
	}
	if len(b.idf) > 0 {
		floor := params.Epsilon * idfSum / float64(len(b.idf))
		for _, tok := range negative {
			b.idf[tok] = floor
		}
	}
	return b
}

// Len returns the number of indexed documents.
func (b *BM25) Len() int {
	return len(b.docLen)
}

// IDF returns the (floored) inverse document frequency of term, or 0 if unseen.
func (b *BM25) IDF(term string) float64 {
	return b.idf[term]
}

// Scores returns one BM25 score per document for the query tokens. Repeated
// query tokens contribute once per occurrence.
func (b *BM25) Scores(tokens []string) []float64 {
	scores := make([]float64, len(b.docLen))
	if len(scores) == 0 || b.avgdl == 0 {
		return scores
	}

	k1, bb := b.params.K1, b.params.B
	for _, q := range tokens {
		idf, ok := b.idf[q]
		if !ok || idf == 0 {
			continue
		}
		for i, tf := range b.termFreq {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			denom := f + k1*(1-bb+bb*b.docLen[i]/b.avgdl)
			scores[i] += idf * (f * (k1 + 1) / denom)
		}
	}
	return scores
}
