// Package tracing times the stages of a run (loading, indexing, ranking,
// export) as a tree of spans carried in the context and logs the tree when
// the run ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed stage.
type Span struct {
	Name     string
	RunID    string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []any
}

// Start opens a span under the span in ctx, or a root span when ctx has
// none.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.RunID = parent.RunID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartRun opens a root span for runID.
func StartRun(ctx context.Context, name, runID string) (context.Context, *Span) {
	span := &Span{Name: name, RunID: runID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.Start)
	s.mu.Unlock()
}

// SetAttr attaches a key/value pair logged with the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// Children returns a copy of the direct child spans in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes the tree depth-first at debug level.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"run_id", s.RunID,
		"span", s.Name,
		"depth", depth,
		"duration_ms", s.Duration.Milliseconds(),
	}
	attrs = append(attrs, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	logger.Debug("span", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
