package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"superstore-analytics/internal/config"
	"superstore-analytics/internal/models"
)

const serviceName = "superstore-analytics"

// NewLogger builds the process logger. Every record carries the service name
// so web and CLI output can be told apart when collected together.
func NewLogger(cfg config.LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Level),
		AddSource: true,
	}

	out := logOutput(cfg.Output)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler).With("service", serviceName)
}

// logOutput lets the CLI keep stdout free for its JSON report.
func logOutput(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

const RequestIDKey contextKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// FromContext scopes logger to the request that triggered the work, so an
// upload's ingest lines can be joined with its access log line.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}

// Dataset groups the identifying fields of a loaded dataset under "dataset".
func Dataset(info models.DatasetInfo) slog.Attr {
	return slog.Group("dataset",
		slog.String("id", info.ID),
		slog.String("filename", info.Filename),
		slog.Int("rows", info.RowsRead),
		slog.Int("records", info.RecordsKept),
	)
}
