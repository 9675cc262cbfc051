package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

const (
	fixtureDocs = `.I 1
.T
Indexing
.W
automatic indexing of technical documents
.I 2
.W
evaluation of retrieval systems
.I 3
.W
library catalog classification
`
	fixtureQueries = `.I 1
.W
automatic indexing
.I 2
.W
retrieval evaluation
.I 3
.W
catalog
`
	fixtureQrels = "1 1\n2 2\n"
)

func writeCollection(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"adi.all": fixtureDocs,
		"adi.qry": fixtureQueries,
		"adi.rel": fixtureQrels,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithLog(t, args...)
	return out, err
}

func runWithLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), stderr.String(), err
}

func TestEvaluate(t *testing.T) {
	dir := writeCollection(t)
	out, err := run(t, "evaluate", "--collection", "adi", "--dir", dir, "--doc", "ltc", "--query", "ltc", "--per-query")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	for _, want := range []string{"weighting:", "ltc.ltc", "MAP:", "1.0000", "evaluated:", "unknown_query=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluateLogsSpans(t *testing.T) {
	dir := writeCollection(t)
	_, logs, err := runWithLog(t, "evaluate", "--collection", "adi", "--dir", dir, "--log-level", "debug")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	found := false
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "msg=span") && strings.Contains(line, "span=index") {
			found = strings.Contains(line, "postings=")
		}
	}
	if !found {
		t.Errorf("index span logged without postings:\n%s", logs)
	}
}

func TestEvaluateJSON(t *testing.T) {
	dir := writeCollection(t)
	out, err := run(t, "evaluate", "--collection", "adi", "--dir", dir, "--doc", "nnn", "--query", "nnn", "--format", "json")
	if err != nil {
		t.Fatalf("evaluate error = %v", err)
	}
	var got struct {
		Collection string  `json:"collection"`
		MAP        float64 `json:"map"`
		Evaluated  int     `json:"evaluated"`
		Excluded   []struct {
			QueryID int64  `json:"query_id"`
			Reason  string `json:"reason"`
		} `json:"excluded"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.Collection != "adi" || got.MAP != 1 || got.Evaluated != 2 {
		t.Errorf("report = %+v", got)
	}
	if len(got.Excluded) != 1 || got.Excluded[0].QueryID != 3 || got.Excluded[0].Reason != "unknown_query" {
		t.Errorf("excluded = %+v", got.Excluded)
	}
}

func TestSweep(t *testing.T) {
	dir := writeCollection(t)
	csvPath := filepath.Join(t.TempDir(), "results.csv")
	config := filepath.Join(t.TempDir(), "smarteval.yaml")
	yaml := "export:\n  sinks: [csv]\n  csvPath: " + csvPath + "\n"
	if err := os.WriteFile(config, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "sweep", "--config", config, "--collection", "adi", "--dir", dir,
		"--doc-codes", "ltc,nnn", "--query-codes", "ntc", "--format", "json")
	if err != nil {
		t.Fatalf("sweep error = %v", err)
	}
	var got struct {
		Results []struct {
			DocWeighting   string  `json:"doc_weighting"`
			QueryWeighting string  `json:"query_weighting"`
			MAP            float64 `json:"map"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if len(got.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(got.Results))
	}
	for _, r := range got.Results {
		if r.QueryWeighting != "ntc" || r.MAP != 1 {
			t.Errorf("result = %+v", r)
		}
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("csv export missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "doc.query,map,evaluated,excluded" || !strings.HasPrefix(lines[1], "ltc.ntc,1,") {
		t.Errorf("csv = %q", data)
	}
}

func TestSweepRefreshCache(t *testing.T) {
	dir := writeCollection(t)
	_, logs, err := runWithLog(t, "sweep", "--collection", "adi", "--dir", dir,
		"--doc-codes", "atc", "--query-codes", "ntc,nnn", "--refresh-cache")
	if err != nil {
		t.Fatalf("sweep error = %v", err)
	}
	for _, want := range []string{"cache invalidated", "result cache", "misses"} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}

	_, err = run(t, "sweep", "--collection", "adi", "--dir", dir, "--no-cache", "--refresh-cache")
	if err == nil {
		t.Error("--no-cache with --refresh-cache should fail")
	}
}

func TestRank(t *testing.T) {
	dir := writeCollection(t)
	out, err := run(t, "rank", "--collection", "adi", "--dir", dir, "--doc", "nnn", "--query", "nnn", "--query-id", "1", "--format", "json")
	if err != nil {
		t.Fatalf("rank error = %v", err)
	}
	var got struct {
		QueryID int64 `json:"query_id"`
		Ranking []struct {
			Rank     int     `json:"rank"`
			DocID    int64   `json:"doc_id"`
			Score    float64 `json:"score"`
			Relevant bool    `json:"relevant"`
		} `json:"ranking"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.QueryID != 1 || len(got.Ranking) != 3 {
		t.Fatalf("ranking = %+v", got)
	}
	top := got.Ranking[0]
	if top.DocID != 1 || top.Score != 2 || !top.Relevant {
		t.Errorf("top = %+v, want doc 1 score 2 relevant", top)
	}
	if got.Ranking[1].Score != 0 || got.Ranking[1].DocID != 2 {
		t.Errorf("second = %+v, want doc 2 score 0", got.Ranking[1])
	}
}

func TestCommandErrors(t *testing.T) {
	dir := writeCollection(t)
	tests := []struct {
		name     string
		args     []string
		sentinel error
		exit     int
	}{
		{
			name:     "bad weighting",
			args:     []string{"evaluate", "--collection", "adi", "--dir", dir, "--doc", "xyz"},
			sentinel: apperrors.ErrInvalidConfig,
			exit:     apperrors.ExitConfig,
		},
		{
			name:     "unknown collection",
			args:     []string{"evaluate", "--collection", "trec", "--dir", dir},
			sentinel: apperrors.ErrInvalidConfig,
			exit:     apperrors.ExitConfig,
		},
		{
			name:     "unknown query",
			args:     []string{"rank", "--collection", "adi", "--dir", dir, "--query-id", "99"},
			sentinel: apperrors.ErrUnknownQuery,
			exit:     apperrors.ExitFailure,
		},
		{
			name:     "bad format",
			args:     []string{"evaluate", "--collection", "adi", "--dir", dir, "--format", "xml"},
			sentinel: apperrors.ErrInvalidConfig,
			exit:     apperrors.ExitConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error = %v, want %v", err, tt.sentinel)
			}
			if code := apperrors.ExitCode(err); code != tt.exit {
				t.Errorf("ExitCode() = %d, want %d", code, tt.exit)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	dir := writeCollection(t)
	out, err := run(t, "check", "--collection", "adi", "--dir", dir)
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "collection") || !strings.Contains(out, "overall") {
		t.Errorf("output = %s", out)
	}

	_, err = run(t, "check", "--collection", "adi", "--dir", t.TempDir())
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("check on empty dir error = %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "smarteval dev") {
		t.Errorf("output = %q", out)
	}
}
