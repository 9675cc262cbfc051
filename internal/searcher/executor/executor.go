package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/vectorizer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

// Result is the ranking of one query.
type Result struct {
	QueryID int64              `json:"query_id"`
	Weights vectorizer.Vector  `json:"weights"`
	Ranking []ranker.ScoredDoc `json:"ranking"`
}

// Executor ranks queries against one engine under a fixed query weighting.
type Executor struct {
	engine    *indexer.Engine
	weighting weighting.Triplet
	docIDs    []int64
	workers   int
	logger    *slog.Logger
}

// New returns an Executor running up to workers queries at once. A
// non-positive workers value means GOMAXPROCS.
func New(engine *indexer.Engine, queryWeighting weighting.Triplet, workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		engine:    engine,
		weighting: queryWeighting,
		docIDs:    engine.DocIDs(),
		workers:   workers,
		logger: slog.Default().With(
			"component", "query-executor",
			"doc_weighting", engine.Weighting().Code(),
			"query_weighting", queryWeighting.Code(),
		),
	}
}

// Vectorize weighs the query tokens.
func (e *Executor) Vectorize(q corpus.Query) vectorizer.Vector {
	return vectorizer.Vectorize(q.Tokens, e.weighting, e.engine.IDF())
}

// Rank scores every corpus document for q.
func (e *Executor) Rank(q corpus.Query) *Result {
	v := e.Vectorize(q)
	return &Result{
		QueryID: q.ID,
		Weights: v,
		Ranking: ranker.RankQuery(e.docIDs, e.engine.Index(), v),
	}
}

// RankAll ranks queries concurrently. Results keep the order of queries.
func (e *Executor) RankAll(ctx context.Context, queries []corpus.Query) ([]*Result, error) {
	start := time.Now()
	results := make([]*Result, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("ranking query %d: %w", q.ID, err)
			}
			results[i] = e.Rank(q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("queries ranked",
		"queries", len(queries),
		"docs", len(e.docIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}
