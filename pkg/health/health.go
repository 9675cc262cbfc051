// Package health probes the optional backends (Redis cache, PostgreSQL and
// Kafka sinks) before a long sweep is started against them.
package health

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes one backend.
type Check func(ctx context.Context) error

// ComponentHealth is the outcome of one Check.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// Report lists every component in name order. Status is the worst
// component status.
type Report struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
}

type registration struct {
	check    Check
	optional bool
}

type Checker struct {
	mu      sync.RWMutex
	checks  map[string]registration
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker returns a Checker that gives each probe at most timeout.
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{
		checks:  make(map[string]registration),
		timeout: timeout,
		logger:  slog.Default().With("component", "health"),
	}
}

// Register adds a required check. A failing required check marks the
// report down.
func (c *Checker) Register(name string, check Check) {
	c.register(name, check, false)
}

// RegisterOptional adds a check whose failure only degrades the report.
func (c *Checker) RegisterOptional(name string, check Check) {
	c.register(name, check, true)
}

func (c *Checker) register(name string, check Check, optional bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registration{check: check, optional: optional}
}

// Run executes every check concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	regs := make(map[string]registration, len(c.checks))
	for name, reg := range c.checks {
		regs[name] = reg
	}
	c.mu.RUnlock()
	sort.Strings(names)

	components := make([]ComponentHealth, len(names))
	var g errgroup.Group
	for i, name := range names {
		reg := regs[name]
		g.Go(func() error {
			components[i] = c.probe(ctx, name, reg)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusUp, Components: components}
	for _, comp := range components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (c *Checker) probe(ctx context.Context, name string, reg registration) ComponentHealth {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	err := reg.check(ctx)
	result := ComponentHealth{
		Name:    name,
		Status:  StatusUp,
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		result.Status = StatusDown
		if reg.optional {
			result.Status = StatusDegraded
		}
		result.Message = err.Error()
		c.logger.Warn("health check failed", "check", name, "error", err)
	}
	return result
}
