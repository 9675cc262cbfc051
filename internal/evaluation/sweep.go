package evaluation

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
)

// SweepResult is the outcome of one doc/query weighting combination.
type SweepResult struct {
	DocWeighting   string  `json:"doc_weighting"`
	QueryWeighting string  `json:"query_weighting"`
	RankLimit      int     `json:"rank_limit"`
	MAP            float64 `json:"map"`
	Evaluated      int     `json:"evaluated"`
	Excluded       int     `json:"excluded"`
}

// Combination returns the "doc.query" label used in exports.
func (r SweepResult) Combination() string {
	return r.DocWeighting + "." + r.QueryWeighting
}

// CacheKey identifies a SweepResult independent of run.
type CacheKey struct {
	Fingerprint    string
	DocWeighting   string
	QueryWeighting string
	RankLimit      int
	Policy         DegeneratePolicy
}

// ResultCache serves previously computed combinations.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key CacheKey, compute func(ctx context.Context) (*SweepResult, error)) (*SweepResult, error)
}

// SweepOptions configures Sweep. Empty code lists mean every code.
type SweepOptions struct {
	DocCodes   []string
	QueryCodes []string
	RankLimit  int
	Workers    int
	Policy     DegeneratePolicy
	Cache      ResultCache
}

// Sweep evaluates every combination of document and query weighting. Each
// document weighting is indexed once and shared by all of its query
// weightings. Results are ordered by document code, then query code, in the
// order the codes were given.
func (e *Evaluator) Sweep(ctx context.Context, c *corpus.Collection, opts SweepOptions) ([]SweepResult, error) {
	docCodes, err := parseCodes(opts.DocCodes)
	if err != nil {
		return nil, err
	}
	queryCodes, err := parseCodes(opts.QueryCodes)
	if err != nil {
		return nil, err
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	base := Options{RankLimit: opts.RankLimit, Workers: 1, Policy: policy}
	if err := base.validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var fingerprint string
	if opts.Cache != nil {
		fingerprint = c.Fingerprint()
	}

	log := logger.FromContext(ctx).With("component", "sweep", "collection", c.Name)
	log.Info("sweep started",
		"doc_codes", len(docCodes),
		"query_codes", len(queryCodes),
		"workers", workers,
	)
	start := time.Now()

	results := make([]SweepResult, len(docCodes)*len(queryCodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for di, doc := range docCodes {
		g.Go(func() error {
			var engine *indexer.Engine
			for qi, query := range queryCodes {
				if err := ctx.Err(); err != nil {
					return err
				}
				runOpts := base
				runOpts.DocWeighting = doc
				runOpts.QueryWeighting = query
				compute := func(ctx context.Context) (*SweepResult, error) {
					if engine == nil {
						built, err := e.BuildEngine(c.Documents, doc)
						if err != nil {
							return nil, err
						}
						engine = built
					}
					report, err := e.EvaluateEngine(ctx, engine, c.Queries, c.Relevance, runOpts)
					if err != nil {
						return nil, err
					}
					return &SweepResult{
						DocWeighting:   report.DocWeighting,
						QueryWeighting: report.QueryWeighting,
						RankLimit:      report.RankLimit,
						MAP:            report.MAP,
						Evaluated:      report.Evaluated,
						Excluded:       len(report.Excluded),
					}, nil
				}

				var res *SweepResult
				var err error
				if opts.Cache == nil {
					res, err = compute(ctx)
				} else {
					res, err = opts.Cache.GetOrCompute(ctx, CacheKey{
						Fingerprint:    fingerprint,
						DocWeighting:   doc.Code(),
						QueryWeighting: query.Code(),
						RankLimit:      opts.RankLimit,
						Policy:         policy,
					}, compute)
				}
				if err != nil {
					return fmt.Errorf("evaluating %s.%s: %w", doc.Code(), query.Code(), err)
				}
				results[di*len(queryCodes)+qi] = *res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := Best(results)
	log.Info("sweep complete",
		"combinations", len(results),
		"best", best.Combination(),
		"map", best.MAP,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// Best returns the combination with the highest MAP, the earliest on ties.
func Best(results []SweepResult) SweepResult {
	var best SweepResult
	for i, r := range results {
		if i == 0 || r.MAP > best.MAP {
			best = r
		}
	}
	return best
}

func parseCodes(codes []string) ([]weighting.Triplet, error) {
	if len(codes) == 0 {
		codes = weighting.AllCodes()
	}
	out := make([]weighting.Triplet, 0, len(codes))
	for _, code := range codes {
		t, err := weighting.Parse(code)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
