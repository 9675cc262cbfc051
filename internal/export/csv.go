package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
)

var csvHeader = []string{"doc.query", "map", "evaluated", "excluded"}

// CSVSink writes one row per combination after a header row.
type CSVSink struct {
	w      io.Writer
	closer io.Closer
}

// NewCSVSink writes to w. The caller keeps ownership of w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// CreateCSV truncates or creates path and writes to it.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv export %s: %w", path, err)
	}
	return &CSVSink{w: f, closer: f}, nil
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, results []evaluation.SweepResult) error {
	cw := csv.NewWriter(s.w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			r.Combination(),
			strconv.FormatFloat(r.MAP, 'f', -1, 64),
			strconv.Itoa(r.Evaluated),
			strconv.Itoa(r.Excluded),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", r.Combination(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *CSVSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
