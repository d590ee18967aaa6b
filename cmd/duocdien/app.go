package duocdien

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/duocdien/pkg/alert"
	"github.com/soundprediction/duocdien/pkg/answer"
	"github.com/soundprediction/duocdien/pkg/cache"
	"github.com/soundprediction/duocdien/pkg/config"
	"github.com/soundprediction/duocdien/pkg/corpus"
	"github.com/soundprediction/duocdien/pkg/cypher"
	"github.com/soundprediction/duocdien/pkg/driver"
	"github.com/soundprediction/duocdien/pkg/embedder"
	"github.com/soundprediction/duocdien/pkg/nlp"
	"github.com/soundprediction/duocdien/pkg/pipeline"
	"github.com/soundprediction/duocdien/pkg/search"
	"github.com/soundprediction/duocdien/pkg/utils"
)

// app holds the collaborators a command needs. Fields a command never asks
// for stay nil.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	llm      nlp.Client
	embedder embedder.Client
	graph    *driver.Neo4jDriver
	ranker   *search.HybridRanker
	cache    *cache.RedisAnswerCache

	closers []func() error
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	return &app{cfg: cfg, logger: logger}
}

// Close releases everything opened through a, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

// LLM returns the answering model wrapped with retries, an optional circuit
// breaker and optional token tracking.
func (a *app) LLM() (nlp.Client, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	c := a.cfg.LLM
	base, err := nlp.NewClient(&nlp.LLMConfig{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retry := nlp.DefaultRetryConfig()
	if a.cfg.Retry.MaxRetries > 0 {
		retry.MaxRetries = a.cfg.Retry.MaxRetries
	}
	if a.cfg.Retry.InitialDelay > 0 {
		retry.InitialDelay = a.cfg.Retry.InitialDelay
	}
	if a.cfg.Retry.MaxDelay > 0 {
		retry.MaxDelay = a.cfg.Retry.MaxDelay
	}
	var client nlp.Client = nlp.NewRetryClient(base, retry, a.logger)

	if a.cfg.CircuitBreaker.Enabled {
		client = nlp.WithCircuitBreaker(client, a.cfg.CircuitBreaker, alert.New(a.cfg.Alert, a.logger), a.logger, "llm")
	}

	if a.cfg.Telemetry.TrackTokens && a.cfg.Telemetry.ParquetPath != "" {
		tracker, err := nlp.NewTokenTracker(a.cfg.Telemetry.ParquetPath, a.logger)
		if err != nil {
			a.logger.Warn("token tracking disabled", "error", err)
		} else {
			client = nlp.NewTokenTrackingClient(client, tracker)
		}
	}

	a.llm = client
	a.closers = append(a.closers, client.Close)
	a.logger.Debug("LLM client ready", "provider", c.Provider, "model", c.Model)
	return client, nil
}

// Embedder returns the configured embedding model, behind the on-disk
// vector cache when a cache directory is set.
func (a *app) Embedder() (embedder.Client, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	c := a.cfg.Embedding
	inner, err := embedder.New(embedder.Config{
		Provider:   c.Provider,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		ModelPath:  c.ModelPath,
		Dimensions: c.Dimensions,
		BatchSize:  c.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var client embedder.Client = inner
	if dir := a.cfg.Cache.EmbeddingDir; dir != "" {
		cached, err := embedder.NewCachedClientAt(inner, dir, c.Model, a.logger)
		if err != nil {
			a.logger.Warn("embedding cache disabled", "dir", dir, "error", err)
		} else {
			client = cached
		}
	}

	a.embedder = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

// Graph returns the Neo4j driver for the configured schema. It does not dial.
func (a *app) Graph() (*driver.Neo4jDriver, error) {
	if a.graph != nil {
		return a.graph, nil
	}
	schema, err := driver.ParseSchema(a.cfg.Graph.Schema)
	if err != nil {
		return nil, err
	}
	db := a.cfg.Database
	g, err := driver.NewNeo4jDriver(db.URI, db.Username, db.Password, db.Database,
		driver.WithSchema(schema),
		driver.WithLogger(a.logger),
		driver.WithLoadConcurrency(utils.GetSemaphoreLimit()),
	)
	if err != nil {
		return nil, err
	}
	a.graph = g
	a.closers = append(a.closers, func() error { return g.Close(context.Background()) })
	return g, nil
}

// Ranker builds the entity index from the corpus CSV and returns the hybrid
// ranker over it.
func (a *app) Ranker(ctx context.Context) (*search.HybridRanker, error) {
	if a.ranker != nil {
		return a.ranker, nil
	}
	emb, err := a.Embedder()
	if err != nil {
		return nil, err
	}
	entries, err := corpus.ReadColumnFile(a.cfg.Corpus.CSVPath, a.cfg.Corpus.Column)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	index, err := corpus.Build(ctx, entries, emb, corpus.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build entity index: %w", err)
	}
	a.ranker = search.NewHybridRanker(index, emb, search.HybridConfig{
		RankConstant:   a.cfg.Search.RankConstant,
		CandidateLimit: a.cfg.Search.CandidateLimit,
	}).WithLogger(a.logger)
	return a.ranker, nil
}

// Cache returns the Redis answer cache, or nil when no address is configured
// or the server does not answer.
func (a *app) Cache(ctx context.Context) *cache.RedisAnswerCache {
	if a.cache != nil || a.cfg.Cache.RedisAddr == "" {
		return a.cache
	}
	c := cache.NewRedisAnswerCache(cache.RedisOptions{
		Addr: a.cfg.Cache.RedisAddr,
		TTL:  a.cfg.Cache.AnswerTTL,
	})
	if err := c.Ping(ctx); err != nil {
		a.logger.Warn("answer cache disabled", "addr", a.cfg.Cache.RedisAddr, "error", err)
		c.Close()
		return nil
	}
	a.cache = c
	a.closers = append(a.closers, c.Close)
	return c
}

// Answerer returns the answer generator on the configured model.
func (a *app) Answerer() (*answer.Generator, error) {
	llm, err := a.LLM()
	if err != nil {
		return nil, err
	}
	return answer.NewGenerator(llm, answer.WithLogger(a.logger)), nil
}

// Pipeline wires the full question answering flow, text-to-Cypher included.
func (a *app) Pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	ranker, err := a.Ranker(ctx)
	if err != nil {
		return nil, err
	}
	graph, err := a.Graph()
	if err != nil {
		return nil, err
	}
	gen, err := a.Answerer()
	if err != nil {
		return nil, err
	}

	p := &pipeline.Pipeline{
		Ranker:    ranker,
		Graph:     graph,
		Generator: gen,
		Logger:    a.logger,
		Cypher:    cypher.NewGenerator(a.llm, string(graph.Schema()), a.logger),
		Runner:    graph,
	}
	if c := a.Cache(ctx); c != nil {
		p.Cache = c
	}
	return p, nil
}
