package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// Span times one unit of work: an HTTP request or one ingest stage.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Tags      map[string]string `json:"tags,omitempty"`
	Status    SpanStatus        `json:"status"`
	Error     string            `json:"error,omitempty"`
	finished  bool
}

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   generateID(),
		SpanID:    generateID(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanStatusOK,
		Tags:      make(map[string]string),
	}

	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) Finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.Duration = time.Since(s.StartTime)
}

// End finishes the span and logs it at debug level.
func (s *Span) End(logger *slog.Logger) {
	s.Finish()
	if logger == nil {
		return
	}
	logger.Debug("span finished", s.attrs()...)
}

func (s *Span) attrs() []any {
	attrs := []any{
		"operation", s.Operation,
		"trace_id", s.TraceID,
		"span_id", s.SpanID,
		"duration", s.Duration,
		"status", s.Status,
	}
	if s.ParentID != "" {
		attrs = append(attrs, "parent_id", s.ParentID)
	}
	if s.Error != "" {
		attrs = append(attrs, "error", s.Error)
	}
	for _, k := range slices.Sorted(maps.Keys(s.Tags)) {
		attrs = append(attrs, "tag."+k, s.Tags[k])
	}
	return attrs
}

func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Error = err.Error()
	}
}

// Stage runs fn inside a child span named operation. An error from fn marks
// the span failed and is returned unchanged.
func Stage(ctx context.Context, logger *slog.Logger, operation string, fn func(context.Context, *Span) error) error {
	ctx, span := StartSpan(ctx, operation)
	defer span.End(logger)

	if err := fn(ctx, span); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func generateID() string {
	var id [8]byte
	rand.Read(id[:])
	return hex.EncodeToString(id[:])
}
