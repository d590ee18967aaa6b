package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq" // postgres driver for the telemetry table
)

// SQLHandler is a slog.Handler that writes error logs to a Postgres table
type SQLHandler struct {
	next      slog.Handler
	db        *sql.DB
	tableName string
	attrs     []slog.Attr
}

// OpenPostgres opens a database handle for dsn using lib/pq.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}
	return db, nil
}

// NewSQLHandler creates a new SQLHandler using an existing DB connection
func NewSQLHandler(next slog.Handler, db *sql.DB) (*SQLHandler, error) {
	h := &SQLHandler{
		next:      next,
		db:        db,
		tableName: "telemetry_logs",
	}

	if err := h.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure telemetry table: %w", err)
	}

	return h, nil
}

func (h *SQLHandler) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			timestamp TIMESTAMPTZ,
			level VARCHAR(10),
			message TEXT,
			request_id VARCHAR(255),
			session_id VARCHAR(255),
			request_source VARCHAR(255),
			eval_run VARCHAR(255),
			source_file VARCHAR(255),
			line_number INT,
			attributes JSONB
		)
	`, h.tableName)

	_, err := h.db.Exec(query)
	return err
}

// Enabled reports true for errors even when next would drop them.
func (h *SQLHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelError || h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *SQLHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level < slog.LevelError {
		return nil
	}

	rec := newLogRecord(ctx, r, h.attrs)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp, level, message, request_id, session_id, request_source, eval_run, source_file, line_number, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, h.tableName)

	_, err := h.db.ExecContext(context.WithoutCancel(ctx), query,
		rec.ID,
		rec.Timestamp,
		rec.Level,
		rec.Message,
		rec.RequestID,
		rec.SessionID,
		rec.RequestSource,
		rec.EvalRun,
		rec.SourceFile,
		rec.LineNumber,
		rec.Attributes,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log to SQL: %v\n", err)
	}

	return nil // Don't block logging chain on database error
}

// WithAttrs implements slog.Handler
func (h *SQLHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SQLHandler{
		next:      h.next.WithAttrs(attrs),
		db:        h.db,
		tableName: h.tableName,
		attrs:     append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler
func (h *SQLHandler) WithGroup(name string) slog.Handler {
	return &SQLHandler{
		next:      h.next.WithGroup(name),
		db:        h.db,
		tableName: h.tableName,
		attrs:     h.attrs,
	}
}
