// Package evaluation measures retrieval quality: it runs every query of a
// collection through an index built under one weighting scheme and reports
// mean average precision over the judged queries.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
)

// DefaultRankLimit is the ranking depth used when none is configured.
const DefaultRankLimit = 15

// DegeneratePolicy decides what happens to a query without relevant
// documents.
type DegeneratePolicy string

const (
	// PolicyExclude leaves the query out of the mean and reports it.
	PolicyExclude DegeneratePolicy = "exclude"
	// PolicyZero counts the query with AP 0.
	PolicyZero DegeneratePolicy = "zero"
)

// ParsePolicy validates a policy name. An empty name selects PolicyExclude.
func ParsePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(s) {
	case "", PolicyExclude:
		return PolicyExclude, nil
	case PolicyZero:
		return PolicyZero, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidConfig, "unknown degenerate policy %q", s)
	}
}

// Reasons a query is left out of the mean.
const (
	ReasonUnknownQuery        = "unknown_query"
	ReasonDegenerateRelevance = "degenerate_relevance"
)

// Options configures one evaluation run.
type Options struct {
	DocWeighting   weighting.Triplet
	QueryWeighting weighting.Triplet
	RankLimit      int
	Workers        int
	Policy         DegeneratePolicy
}

func (o Options) validate() error {
	if o.RankLimit <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "rank limit must be positive, got %d", o.RankLimit)
	}
	if _, err := ParsePolicy(string(o.Policy)); err != nil {
		return err
	}
	return nil
}

// ExcludedQuery records a query that did not contribute to the mean.
type ExcludedQuery struct {
	QueryID int64  `json:"query_id"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// QueryResult holds the measures of one evaluated query.
type QueryResult struct {
	AP             float64 `json:"ap"`
	PrecisionAtK   float64 `json:"precision_at_k"`
	RecallAtK      float64 `json:"recall_at_k"`
	ReciprocalRank float64 `json:"reciprocal_rank"`
	Retrieved      int     `json:"retrieved"`
}

// Report summarizes one evaluation run.
type Report struct {
	DocWeighting   string                `json:"doc_weighting"`
	QueryWeighting string                `json:"query_weighting"`
	RankLimit      int                   `json:"rank_limit"`
	MAP            float64               `json:"map"`
	Evaluated      int                   `json:"evaluated"`
	Excluded       []ExcludedQuery       `json:"excluded"`
	PerQuery       map[int64]QueryResult `json:"per_query"`
}

// Recorder receives run-level observations. pkg/metrics implements it.
type Recorder interface {
	ObserveIndex(docWeighting string, postings int)
	ObserveEvaluation(docWeighting, queryWeighting string, mapScore float64, evaluated int, excluded map[string]int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveIndex(string, int) {}
func (nopRecorder) ObserveEvaluation(string, string, float64, int, map[string]int, time.Duration) {
}

// Evaluator runs evaluations. It holds no per-run state and may be shared.
type Evaluator struct {
	recorder Recorder
	logger   *slog.Logger
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithRecorder reports run observations to r.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEvaluator returns an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		recorder: nopRecorder{},
		logger:   logger.WithComponent("evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate indexes the collection under opts.DocWeighting and evaluates
// every query. Invalid options and an empty corpus fail before any work.
func (e *Evaluator) Evaluate(ctx context.Context, c *corpus.Collection, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	engine, err := e.BuildEngine(c.Documents, opts.DocWeighting)
	if err != nil {
		return nil, err
	}
	return e.EvaluateEngine(ctx, engine, c.Queries, c.Relevance, opts)
}

// BuildEngine indexes docs and records the index size.
func (e *Evaluator) BuildEngine(docs []corpus.Document, t weighting.Triplet) (*indexer.Engine, error) {
	engine, err := indexer.NewEngine(docs, t)
	if err != nil {
		return nil, err
	}
	e.recorder.ObserveIndex(t.Code(), engine.Index().Size())
	return engine, nil
}

// EvaluateEngine evaluates queries against an engine that is already built.
// opts.DocWeighting is ignored in favour of the engine's own weighting.
func (e *Evaluator) EvaluateEngine(ctx context.Context, engine *indexer.Engine, queries []corpus.Query, relevance corpus.RelevanceSet, opts Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := corpus.ValidateQueries(queries); err != nil {
		return nil, err
	}
	policy, _ := ParsePolicy(string(opts.Policy))
	start := time.Now()
	log := logger.FromContext(ctx).With(
		"component", "evaluator",
		"doc_weighting", engine.Weighting().Code(),
		"query_weighting", opts.QueryWeighting.Code(),
	)

	results, err := executor.New(engine, opts.QueryWeighting, opts.Workers).RankAll(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("ranking queries: %w", err)
	}

	report := &Report{
		DocWeighting:   engine.Weighting().Code(),
		QueryWeighting: opts.QueryWeighting.Code(),
		RankLimit:      opts.RankLimit,
		PerQuery:       make(map[int64]QueryResult, len(results)),
	}
	excludedBy := make(map[string]int)
	aps := make([]float64, 0, len(results))
	for _, res := range results {
		relevant, ok := relevance.Relevant(res.QueryID)
		if !ok {
			err := apperrors.Newf(apperrors.ErrUnknownQuery, "query %d has no relevance judgments", res.QueryID)
			report.exclude(res.QueryID, ReasonUnknownQuery, err)
			excludedBy[ReasonUnknownQuery]++
			log.Warn("query excluded", "query_id", res.QueryID, "reason", ReasonUnknownQuery)
			continue
		}
		ranked := ranker.DocIDs(res.Ranking)
		ap, err := AveragePrecision(ranked, relevant, opts.RankLimit)
		if err != nil {
			if !errors.Is(err, apperrors.ErrDegenerateRelevance) {
				return nil, fmt.Errorf("query %d: %w", res.QueryID, err)
			}
			if policy == PolicyExclude {
				report.exclude(res.QueryID, ReasonDegenerateRelevance, err)
				excludedBy[ReasonDegenerateRelevance]++
				log.Warn("query excluded", "query_id", res.QueryID, "reason", ReasonDegenerateRelevance)
				continue
			}
			ap = 0
		}
		aps = append(aps, ap)
		report.PerQuery[res.QueryID] = QueryResult{
			AP:             ap,
			PrecisionAtK:   PrecisionAt(ranked, relevant, opts.RankLimit),
			RecallAtK:      RecallAt(ranked, relevant, opts.RankLimit),
			ReciprocalRank: ReciprocalRank(ranked, relevant, opts.RankLimit),
			Retrieved:      hitsAt(ranked, relevant, min(opts.RankLimit, len(ranked))),
		}
	}
	report.Evaluated = len(aps)

	mean, err := MeanAveragePrecision(aps)
	if err != nil {
		return nil, fmt.Errorf("%d of %d queries excluded: %w", len(report.Excluded), len(queries), err)
	}
	report.MAP = mean

	elapsed := time.Since(start)
	e.recorder.ObserveEvaluation(report.DocWeighting, report.QueryWeighting, report.MAP, report.Evaluated, excludedBy, elapsed)
	log.Debug("evaluation complete",
		"queries", len(queries),
		"evaluated", report.Evaluated,
		"excluded", len(report.Excluded),
		"map", report.MAP,
		"duration_ms", elapsed.Milliseconds(),
	)
	return report, nil
}

func (r *Report) exclude(queryID int64, reason string, err error) {
	r.Excluded = append(r.Excluded, ExcludedQuery{QueryID: queryID, Reason: reason, Err: err})
}

// Evaluate parses the two weighting codes and returns the MAP of c with the
// default exclusion policy.
func Evaluate(ctx context.Context, c *corpus.Collection, docCode, queryCode string, rankLimit int) (float64, error) {
	doc, err := weighting.Parse(docCode)
	if err != nil {
		return 0, err
	}
	query, err := weighting.Parse(queryCode)
	if err != nil {
		return 0, err
	}
	report, err := NewEvaluator().Evaluate(ctx, c, Options{
		DocWeighting:   doc,
		QueryWeighting: query,
		RankLimit:      rankLimit,
		Policy:         PolicyExclude,
	})
	if err != nil {
		return 0, err
	}
	return report.MAP, nil
}
