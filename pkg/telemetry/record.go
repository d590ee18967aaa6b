package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/duocdien/pkg/types"
)

// LogRecord represents a single persisted log entry
type LogRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Level         string    `parquet:"level"`
	Message       string    `parquet:"message"`
	RequestID     string    `parquet:"request_id"`
	SessionID     string    `parquet:"session_id"`
	RequestSource string    `parquet:"request_source"`
	EvalRun       string    `parquet:"eval_run"`
	SourceFile    string    `parquet:"source_file"`
	LineNumber    int       `parquet:"line_number"`
	Attributes    string    `parquet:"attributes"` // JSON string
}

// newLogRecord captures r together with the request identifiers carried on ctx.
// attrs are the handler-level attributes added through WithAttrs.
func newLogRecord(ctx context.Context, r slog.Record, attrs []slog.Attr) LogRecord {
	fields := make(map[string]any, r.NumAttrs()+len(attrs))
	for _, a := range attrs {
		fields[a.Key] = attrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = attrValue(a.Value)
		return true
	})
	attrsJSON, _ := json.Marshal(fields)

	var sourceFile string
	var line int
	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		sourceFile, line = f.File, f.Line
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return LogRecord{
		ID:            uuid.New().String(),
		Timestamp:     ts.UTC(),
		Level:         r.Level.String(),
		Message:       r.Message,
		RequestID:     types.StringFromContext(ctx, types.ContextKeyRequestID),
		SessionID:     types.StringFromContext(ctx, types.ContextKeySessionID),
		RequestSource: types.StringFromContext(ctx, types.ContextKeyRequestSource),
		EvalRun:       types.StringFromContext(ctx, types.ContextKeyEvalRun),
		SourceFile:    sourceFile,
		LineNumber:    line,
		Attributes:    string(attrsJSON),
	}
}

// attrValue keeps errors readable in the JSON column.
func attrValue(v slog.Value) any {
	v = v.Resolve()
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}
