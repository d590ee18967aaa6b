package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration (Neo4j)
	Database DatabaseConfig `mapstructure:"database"`

	// Graph selects the knowledge graph schema
	Graph GraphConfig `mapstructure:"graph"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Search configuration for the hybrid ranker
	Search SearchConfig `mapstructure:"search"`

	// Corpus names the CSV the entity index is built from
	Corpus CorpusConfig `mapstructure:"corpus"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`

	// Retry configuration for LLM calls
	Retry RetryConfig `mapstructure:"retry"`

	// Benchmark configuration
	Benchmark BenchmarkConfig `mapstructure:"benchmark"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// RetryConfig controls retries of failed LLM calls.
type RetryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	// ParquetPath is the directory for error records and token usage.
	ParquetPath string `mapstructure:"parquet_path"`
	TrackTokens bool   `mapstructure:"track_tokens"`
	// DBURL is an optional Postgres DSN that also receives error records.
	DBURL string `mapstructure:"db_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // color or json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// GraphConfig selects which graph layout queries and loads target.
type GraphConfig struct {
	Schema string `mapstructure:"schema"` // pharmacopoeia or disease
}

// LLMConfig holds configuration for the answering model
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // gemini or openai
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // hugot, embedeverything or openai
	Model      string `mapstructure:"model"`
	ModelPath  string `mapstructure:"model_path"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// SearchConfig holds hybrid ranker parameters
type SearchConfig struct {
	RankConstant   int `mapstructure:"rank_constant"`
	CandidateLimit int `mapstructure:"candidate_limit"`
	DefaultTopK    int `mapstructure:"default_top_k"`
}

// CorpusConfig names the source of entity names.
type CorpusConfig struct {
	CSVPath string `mapstructure:"csv_path"`
	Column  string `mapstructure:"column"`
}

// CacheConfig holds the embedding and answer cache settings.
type CacheConfig struct {
	EmbeddingDir string        `mapstructure:"embedding_dir"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	AnswerTTL    time.Duration `mapstructure:"answer_ttl"`
}

// BenchmarkConfig holds evaluation run settings.
type BenchmarkConfig struct {
	MaxQuestions int           `mapstructure:"max_questions"`
	Delay        time.Duration `mapstructure:"delay"`
	Retries      int           `mapstructure:"retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// Load loads configuration from the global viper instance and environment variables
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes configuration from v after applying defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("duocdien")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	// Database defaults
	v.SetDefault("database.uri", "bolt://localhost:7687")
	v.SetDefault("database.username", "neo4j")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")

	v.SetDefault("graph.schema", "pharmacopoeia")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 8192)

	v.SetDefault("embedding.provider", "hugot")
	v.SetDefault("embedding.model", "keepitreal/vietnamese-sbert")
	v.SetDefault("embedding.batch_size", 64)

	v.SetDefault("search.rank_constant", 60)
	v.SetDefault("search.candidate_limit", 10)
	v.SetDefault("search.default_top_k", 1)

	v.SetDefault("corpus.csv_path", "data/duoc_dien.csv")
	v.SetDefault("corpus.column", "Ten_Hoat_Chat")

	v.SetDefault("cache.answer_ttl", 24*time.Hour)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 30)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_delay", 2*time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)

	v.SetDefault("benchmark.max_questions", 200)
	v.SetDefault("benchmark.delay", time.Second)
	v.SetDefault("benchmark.retries", 3)
	v.SetDefault("benchmark.retry_delay", 2*time.Second)
	v.SetDefault("benchmark.concurrency", 10)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		v.SetDefault("telemetry.parquet_path", filepath.Join(home, ".duocdien", "telemetry"))
		v.SetDefault("cache.embedding_dir", filepath.Join(home, ".duocdien", "embeddings"))
	}
}

// overrideWithEnv overrides config with the conventional environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" && config.LLM.Provider == "gemini" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = apiKey
	}

	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.RedisAddr = addr
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
