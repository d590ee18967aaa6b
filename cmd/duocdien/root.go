package duocdien

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soundprediction/duocdien/pkg/config"
	"github.com/soundprediction/duocdien/pkg/logger"
	"github.com/soundprediction/duocdien/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "duocdien",
		Short: "Duocdien: Vietnamese pharmacopoeia question answering",
		Long: `Duocdien answers questions about the Vietnamese Pharmacopoeia from a Neo4j
knowledge graph. It resolves drug names with hybrid BM25 and dense search,
reads the matching graph context and asks a language model for the answer.

It also contains the data tooling around the graph: parsing monographs from
.docx files, loading them into Neo4j, generating benchmark questions and
scoring answering systems against them.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.duocdien.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "color", "log format (color, json)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".duocdien")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. Warnings and errors are also recorded
// to parquet under the telemetry path, and to Postgres when a DSN is set.
// The returned closer flushes those sinks.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func()) {
	base := logger.New(w, cfg.Log.Format, cfg.Log.Level)
	handler := base.Handler()
	var closers []func() error

	if cfg.Telemetry.ParquetPath != "" {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			base.Warn("error tracking disabled", "error", err)
		} else {
			handler = ph
			closers = append(closers, ph.Close)
		}
	}

	if cfg.Telemetry.DBURL != "" {
		db, err := telemetry.OpenPostgres(cfg.Telemetry.DBURL)
		if err == nil {
			var sh *telemetry.SQLHandler
			if sh, err = telemetry.NewSQLHandler(handler, db); err == nil {
				handler = sh
				closers = append(closers, db.Close)
			} else {
				db.Close()
			}
		}
		if err != nil {
			base.Warn("database error tracking disabled", "error", err)
		}
	}

	log := slog.New(handler)
	return log, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				base.Warn("failed to flush telemetry", "error", err)
			}
		}
	}
}

// setup loads configuration and the logger for a command run.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, closeLog := newLogger(cfg, cmd.ErrOrStderr())
	return cfg, log, closeLog, nil
}
