package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/resilience"
)

// SQLClient is the part of postgres.Client the sink uses.
type SQLClient interface {
	Exec(ctx context.Context, query string, args ...any) error
	CopyRows(ctx context.Context, table string, columns []string, rows [][]any) error
	Close() error
}

var resultColumns = []string{
	"run_id",
	"doc_weighting",
	"query_weighting",
	"rank_limit",
	"map",
	"evaluated",
	"excluded",
}

// PostgresSink bulk-loads results into one table, one transaction per
// Write. The table is created on first use.
type PostgresSink struct {
	client SQLClient
	table  string
	runID  string
	retry  resilience.RetryConfig
	logger *slog.Logger

	mu      sync.Mutex
	created bool
}

func NewPostgresSink(client SQLClient, table, runID string) *PostgresSink {
	return &PostgresSink{
		client: client,
		table:  table,
		runID:  runID,
		logger: logger.WithComponent("postgres-sink"),
	}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) createTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id          TEXT NOT NULL,
	doc_weighting   TEXT NOT NULL,
	query_weighting TEXT NOT NULL,
	rank_limit      INTEGER NOT NULL,
	map             DOUBLE PRECISION NOT NULL,
	evaluated       INTEGER NOT NULL,
	excluded        INTEGER NOT NULL,
	recorded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`, postgres.QuoteIdentifier(s.table))
}

// ensureTable creates the table once. A failed attempt is retried by the
// next Write.
func (s *PostgresSink) ensureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return nil
	}
	err := resilience.Retry(ctx, "create results table", s.retry, func() error {
		return permanentSQLError(s.client.Exec(ctx, s.createTableSQL()))
	})
	if err != nil {
		return err
	}
	s.created = true
	return nil
}

// permanentSQLError marks errors that a retry cannot fix: bad data (22),
// constraint violations (23), and syntax or undefined objects (42).
func permanentSQLError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Class() {
	case "22", "23", "42":
		return resilience.Permanent(err)
	}
	return err
}

func (s *PostgresSink) Write(ctx context.Context, results []evaluation.SweepResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := s.ensureTable(ctx); err != nil {
		return err
	}
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{s.runID, r.DocWeighting, r.QueryWeighting, r.RankLimit, r.MAP, r.Evaluated, r.Excluded}
	}
	err := resilience.Retry(ctx, "copy results", s.retry, func() error {
		return permanentSQLError(s.client.CopyRows(ctx, s.table, resultColumns, rows))
	})
	if err != nil {
		return err
	}
	s.logger.Debug("results copied", "table", s.table, "rows", len(rows), "run_id", s.runID)
	return nil
}

func (s *PostgresSink) Close() error {
	return s.client.Close()
}
