package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/postgres"
)

var (
	_ SQLClient = (*postgres.Client)(nil)
	_ Publisher = (*kafka.Producer)(nil)
)

func sampleResults() []evaluation.SweepResult {
	return []evaluation.SweepResult{
		{DocWeighting: "ltc", QueryWeighting: "ntc", RankLimit: 15, MAP: 0.5, Evaluated: 30, Excluded: 2},
		{DocWeighting: "nnn", QueryWeighting: "bnn", RankLimit: 15, MAP: 0.125, Evaluated: 30, Excluded: 2},
	}
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf)
	if err := s.Write(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "doc.query,map,evaluated,excluded\nltc.ntc,0.5,30,2\nnnn.bnn,0.125,30,2\n"
	if got := buf.String(); got != want {
		t.Errorf("csv output =\n%s\nwant\n%s", got, want)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCreateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := CreateCSV(path)
	if err != nil {
		t.Fatalf("CreateCSV() error = %v", err)
	}
	if err := s.Write(context.Background(), sampleResults()[:1]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "ltc.ntc,0.5,30,2\n") {
		t.Errorf("file contents = %q", data)
	}
}

type fakeSQL struct {
	mu       sync.Mutex
	execs    []string
	copies   int
	rows     [][]any
	columns  []string
	table    string
	failures int
	execErrs []error
	copyErr  error
	closed   bool
}

func (f *fakeSQL) Exec(_ context.Context, query string, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, query)
	if len(f.execErrs) > 0 {
		err := f.execErrs[0]
		f.execErrs = f.execErrs[1:]
		return err
	}
	return nil
}

func (f *fakeSQL) CopyRows(_ context.Context, table string, columns []string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies++
	if f.copyErr != nil {
		return f.copyErr
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.table = table
	f.columns = columns
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeSQL) Close() error {
	f.closed = true
	return nil
}

func TestPostgresSink(t *testing.T) {
	db := &fakeSQL{failures: 1}
	s := NewPostgresSink(db, "results", "run-1")
	s.retry.InitialDelay = time.Millisecond

	ctx := context.Background()
	if err := s.Write(ctx, sampleResults()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Write(ctx, sampleResults()[:1]); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	if len(db.execs) != 1 || !strings.Contains(db.execs[0], `CREATE TABLE IF NOT EXISTS "results"`) {
		t.Errorf("execs = %v, want one CREATE TABLE", db.execs)
	}
	if db.copies != 3 {
		t.Errorf("copies = %d, want 3 (one retried)", db.copies)
	}
	if db.table != "results" || len(db.columns) != len(resultColumns) {
		t.Errorf("copied into %s %v", db.table, db.columns)
	}
	if len(db.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(db.rows))
	}
	first := db.rows[0]
	if first[0] != "run-1" || first[1] != "ltc" || first[2] != "ntc" || first[4] != 0.5 {
		t.Errorf("first row = %v", first)
	}
	if err := s.Close(); err != nil || !db.closed {
		t.Errorf("Close() error = %v closed = %v", err, db.closed)
	}
}

func TestPostgresSinkCreatesTableAfterCancelledWrite(t *testing.T) {
	db := &fakeSQL{execErrs: []error{context.Canceled}}
	s := NewPostgresSink(db, "results", "run")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, sampleResults()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Write() error = %v, want context.Canceled", err)
	}
	if err := s.Write(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Write() after cancellation error = %v", err)
	}
	if err := s.Write(context.Background(), sampleResults()); err != nil {
		t.Fatalf("third Write() error = %v", err)
	}
	if len(db.execs) != 2 {
		t.Errorf("CREATE TABLE ran %d times, want 2", len(db.execs))
	}
	if db.copies != 2 {
		t.Errorf("copies = %d, want 2", db.copies)
	}
}

func TestPostgresSinkDoesNotRetrySQLErrors(t *testing.T) {
	tests := []struct {
		name   string
		db     *fakeSQL
		execs  int
		copies int
	}{
		{
			name:  "undefined table on create",
			db:    &fakeSQL{execErrs: []error{&pq.Error{Code: "42P01", Message: "relation does not exist"}}},
			execs: 1,
		},
		{
			name:   "bad data on copy",
			db:     &fakeSQL{copyErr: &pq.Error{Code: "22P02", Message: "invalid input syntax"}},
			execs:  1,
			copies: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPostgresSink(tt.db, "results", "run")
			s.retry.InitialDelay = time.Millisecond
			err := s.Write(context.Background(), sampleResults())
			var pqErr *pq.Error
			if !errors.As(err, &pqErr) {
				t.Fatalf("Write() error = %v, want *pq.Error", err)
			}
			if len(tt.db.execs) != tt.execs || tt.db.copies != tt.copies {
				t.Errorf("execs = %d copies = %d, want %d and %d", len(tt.db.execs), tt.db.copies, tt.execs, tt.copies)
			}
		})
	}
}

func TestPostgresSinkEmpty(t *testing.T) {
	db := &fakeSQL{}
	if err := NewPostgresSink(db, "results", "run").Write(context.Background(), nil); err != nil {
		t.Fatalf("Write(nil) error = %v", err)
	}
	if len(db.execs) != 0 || db.copies != 0 {
		t.Errorf("empty write touched the database: execs=%d copies=%d", len(db.execs), db.copies)
	}
}

type fakePublisher struct {
	events []kafka.Event
	err    error
	closed bool
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	pub := &fakePublisher{}
	s := NewKafkaSink(pub, "run-7")
	if err := s.Write(context.Background(), sampleResults()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(pub.events) != 2 {
		t.Fatalf("events = %d, want 2", len(pub.events))
	}
	ev := pub.events[1]
	if ev.Key != "nnn.bnn" {
		t.Errorf("Key = %q, want nnn.bnn", ev.Key)
	}
	if ev.Headers["run_id"] != "run-7" || ev.Headers["rank_limit"] != "15" {
		t.Errorf("Headers = %v", ev.Headers)
	}
	if r, ok := ev.Value.(evaluation.SweepResult); !ok || r.MAP != 0.125 {
		t.Errorf("Value = %#v", ev.Value)
	}
	if err := s.Close(); err != nil || !pub.closed {
		t.Errorf("Close() error = %v closed = %v", err, pub.closed)
	}
}

type blockingSink struct{}

func (blockingSink) Name() string { return "blocking" }
func (blockingSink) Write(ctx context.Context, _ []evaluation.SweepResult) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingSink) Close() error { return nil }

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	failing := NewKafkaSink(&fakePublisher{err: errors.New("broker down")}, "run")
	m := NewMulti(20*time.Millisecond, failing, blockingSink{}, NewCSVSink(&buf))

	err := m.Write(context.Background(), sampleResults())
	if err == nil {
		t.Fatal("Write() error = nil, want joined sink errors")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Write() error = %v, want DeadlineExceeded from blocking sink", err)
	}
	for _, name := range []string{"sink kafka", "sink blocking"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Write() error %q missing %q", err, name)
		}
	}
	if !strings.Contains(buf.String(), "ltc.ntc") {
		t.Error("csv sink skipped after earlier failures")
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Sinks = []string{"csv"}
	cfg.Export.CSVPath = filepath.Join(t.TempDir(), "out.csv")

	m, err := Open(cfg, "run")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	cfg.Export.Sinks = []string{"csv", "ftp"}
	if _, err := Open(cfg, "run"); err == nil {
		t.Error("Open() with unknown sink error = nil")
	}
}
