// Package benchmark builds question sets from the pharmacopoeia and scores
// question-answering systems against them.
//
// The data side turns monograph rows into (drug, relation, value) triples,
// drafts 1-hop and 2-hop questions from fixed templates, has a language model
// rephrase them, and merges questions that share an entity and relation.
//
// The evaluation side runs an Answerer over a question set and scores every
// answer with BLEU, ROUGE-L and METEOR:
//
//	runner := benchmark.NewRunner(benchmark.NewHybridAnswerer(p))
//	summary, entries := runner.Run(ctx, "1-hop", questions)
//	benchmark.WriteReport(os.Stdout, "hybrid", map[string]benchmark.Summary{"1-hop": summary})
package benchmark
