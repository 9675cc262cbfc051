// Package export writes sweep results to external destinations: a CSV file,
// a PostgreSQL table or a Kafka topic.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/resilience"
)

// Sink receives the results of one sweep.
type Sink interface {
	Name() string
	Write(ctx context.Context, results []evaluation.SweepResult) error
	Close() error
}

// Multi fans a write out to several sinks. Each write is bounded by the
// timeout; one failing sink does not stop the others.
type Multi struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewMulti returns a Multi over sinks. A non-positive timeout leaves writes
// unbounded.
func NewMulti(timeout time.Duration, sinks ...Sink) *Multi {
	return &Multi{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger.WithComponent("export"),
	}
}

func (m *Multi) Name() string { return "multi" }

// Len reports how many sinks m writes to.
func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Write(ctx context.Context, results []evaluation.SweepResult) error {
	var errs []error
	for _, s := range m.sinks {
		start := time.Now()
		err := resilience.WithTimeout(ctx, m.timeout, "export to "+s.Name(), func(ctx context.Context) error {
			return s.Write(ctx, results)
		})
		if err != nil {
			m.logger.Error("export failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			continue
		}
		m.logger.Info("results exported",
			"sink", s.Name(),
			"results", len(results),
			"elapsed", time.Since(start),
		)
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
