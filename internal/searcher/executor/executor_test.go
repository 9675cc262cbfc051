package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

func newExecutor(t *testing.T, docCode, queryCode string, workers int) *Executor {
	t.Helper()
	docs := []corpus.Document{
		{ID: 1, Tokens: []string{"a", "a", "b"}},
		{ID: 2, Tokens: []string{"b", "c"}},
	}
	engine, err := indexer.NewEngine(docs, weighting.MustParse(docCode))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return New(engine, weighting.MustParse(queryCode), workers)
}

func TestRankNaturalWeighting(t *testing.T) {
	e := newExecutor(t, "nnn", "nnn", 1)
	res := e.Rank(corpus.Query{ID: 7, Tokens: []string{"a", "c"}})

	if res.QueryID != 7 {
		t.Errorf("QueryID = %d, want 7", res.QueryID)
	}
	if len(res.Ranking) != 2 {
		t.Fatalf("len(Ranking) = %d, want every corpus doc", len(res.Ranking))
	}
	// a weighs 2 in doc 1 under raw counts.
	if res.Ranking[0].DocID != 1 || res.Ranking[0].Score != 2 {
		t.Errorf("Ranking[0] = %+v, want doc 1 score 2", res.Ranking[0])
	}
	if res.Ranking[1].DocID != 2 || res.Ranking[1].Score != 1 {
		t.Errorf("Ranking[1] = %+v, want doc 2 score 1", res.Ranking[1])
	}
}

func TestRankBooleanTieBreak(t *testing.T) {
	e := newExecutor(t, "bnn", "nnn", 1)
	res := e.Rank(corpus.Query{ID: 1, Tokens: []string{"a", "c"}})
	if res.Ranking[0].DocID != 1 || res.Ranking[1].DocID != 2 {
		t.Errorf("Ranking = %+v, want tie broken by ascending doc id", res.Ranking)
	}
	if res.Ranking[0].Score != 1 || res.Ranking[1].Score != 1 {
		t.Errorf("Ranking = %+v, want both scores 1", res.Ranking)
	}
}

func TestRankNoOverlap(t *testing.T) {
	e := newExecutor(t, "ltc", "ltc", 1)
	res := e.Rank(corpus.Query{ID: 1, Tokens: []string{"unknown"}})
	if len(res.Ranking) != 2 {
		t.Fatalf("len(Ranking) = %d, want 2", len(res.Ranking))
	}
	for _, d := range res.Ranking {
		if d.Score != 0 {
			t.Errorf("doc %d score = %v, want 0", d.DocID, d.Score)
		}
	}
}

func TestRankAllKeepsOrder(t *testing.T) {
	e := newExecutor(t, "nnn", "nnn", 4)
	queries := []corpus.Query{
		{ID: 3, Tokens: []string{"c"}},
		{ID: 1, Tokens: []string{"a"}},
		{ID: 2, Tokens: []string{"b"}},
	}
	results, err := e.RankAll(context.Background(), queries)
	if err != nil {
		t.Fatalf("RankAll() error = %v", err)
	}
	for i, q := range queries {
		if results[i].QueryID != q.ID {
			t.Errorf("results[%d].QueryID = %d, want %d", i, results[i].QueryID, q.ID)
		}
	}
	if results[0].Ranking[0].DocID != 2 {
		t.Errorf("query c ranked %+v first, want doc 2", results[0].Ranking[0])
	}
}

func TestRankAllCancelled(t *testing.T) {
	e := newExecutor(t, "nnn", "nnn", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.RankAll(ctx, []corpus.Query{{ID: 1, Tokens: []string{"a"}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RankAll() error = %v, want context.Canceled", err)
	}
}
