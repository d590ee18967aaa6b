package duocdien

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soundprediction/duocdien/pkg/config"
	"github.com/soundprediction/duocdien/pkg/server"
	"github.com/soundprediction/duocdien/pkg/server/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP question answering server",
	Long: `Start the HTTP server that exposes the question answering pipeline.

The server provides endpoints for:
- Asking questions through hybrid search (POST /api/v1/ask)
- Asking questions through text-to-Cypher (POST /api/v1/cypher)
- Inspecting the hybrid entity ranking (POST /api/v1/search)
- Health checks and Prometheus metrics

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	serveCmd.Flags().String("db-uri", "", "Neo4j URI")
	serveCmd.Flags().String("db-username", "", "Neo4j username")
	serveCmd.Flags().String("db-password", "", "Neo4j password")
	serveCmd.Flags().String("db-database", "", "Neo4j database name")

	serveCmd.Flags().String("llm-provider", "", "LLM provider (gemini, openai)")
	serveCmd.Flags().String("llm-model", "", "LLM model")
	serveCmd.Flags().String("llm-base-url", "", "LLM base URL")

	serveCmd.Flags().String("redis-addr", "", "Redis address for the answer cache")
	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (errors and token usage)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideConfigWithFlags(cmd, cfg)
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog := newLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, log)
	defer a.Close()

	log.Info("building question answering pipeline", "corpus", cfg.Corpus.CSVPath, "schema", cfg.Graph.Schema)
	p, err := a.Pipeline(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	if err := a.graph.VerifyConnectivity(ctx); err != nil {
		log.Warn("neo4j is not reachable yet", "uri", cfg.Database.URI, "error", err)
	}

	checks := map[string]handlers.Check{
		"neo4j": a.graph.VerifyConnectivity,
	}
	if a.cache != nil {
		checks["redis"] = a.cache.Ping
	}

	srv := server.New(cfg, server.Services{
		Asker:    p,
		Searcher: a.ranker,
		Checks:   checks,
	}, log)
	srv.Setup()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serverHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if flags.Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if flags.Changed("db-uri") {
		cfg.Database.URI, _ = flags.GetString("db-uri")
	}
	if flags.Changed("db-username") {
		cfg.Database.Username, _ = flags.GetString("db-username")
	}
	if flags.Changed("db-password") {
		cfg.Database.Password, _ = flags.GetString("db-password")
	}
	if flags.Changed("db-database") {
		cfg.Database.Database, _ = flags.GetString("db-database")
	}

	if flags.Changed("llm-provider") {
		cfg.LLM.Provider, _ = flags.GetString("llm-provider")
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model, _ = flags.GetString("llm-model")
	}
	if flags.Changed("llm-base-url") {
		cfg.LLM.BaseURL, _ = flags.GetString("llm-base-url")
	}

	if flags.Changed("redis-addr") {
		cfg.Cache.RedisAddr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = flags.GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}
	if cfg.Corpus.CSVPath == "" {
		return fmt.Errorf("corpus CSV path is required")
	}
	return nil
}
