// Package embedder provides text embedding clients used to build the dense
// half of the hybrid entity index.
//
// # Supported Providers
//
//   - HugotEmbedder: ONNX sentence-transformers (default keepitreal/vietnamese-sbert)
//     run in-process by hugot's pure Go backend
//   - EmbedEverythingClient: native models through go-embedeverything
//   - OpenAIEmbedder: OpenAI or any compatible /v1/embeddings endpoint
//
// CachedClient wraps any of them with a badger-backed store so repeated
// corpus builds only embed new entries.
//
// # Usage
//
//	cfg := embedder.Config{Provider: embedder.ProviderHugot, Model: embedder.DefaultHugotModel}
//	base, err := embedder.New(cfg)
//	emb, err := embedder.NewCachedClientAt(base, "./data/embcache", cfg.Model, logger)
//	vec, err := emb.EmbedSingle(ctx, "Ho gà")
package embedder
