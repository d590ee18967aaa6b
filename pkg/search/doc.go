// Package search resolves a free-text question to the best matching entity
// names in a corpus.Index.
//
// HybridRanker runs a dense cosine search and a BM25 search over the same
// corpus, takes the top candidates of each, and fuses the two rankings with
// Reciprocal Rank Fusion:
//
//	score(p) = Σ 1 / (k + rank_i(p) + 1)
//
// where rank_i is the 0-indexed position of p in list i. Every ordering in the
// package breaks ties by ascending corpus position, so results are
// deterministic for a given index and query.
package search
