package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/export"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/resultcache"
	pkgredis "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/tracing"
)

func sweepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate every document/query weighting combination",
		Long: `Evaluate every combination of document and query weighting (all 256 by
default), print them ranked by MAP and write them to the configured export
sinks (csv, postgres, kafka). Results are cached per collection fingerprint.`,
		Example: `  smarteval sweep --collection med --dir data/med
  smarteval sweep --collection adi --dir data/adi --doc-codes ltc,lnc --query-codes ntc,ltc --top 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docCodes, _ := cmd.Flags().GetStringSlice("doc-codes")
			queryCodes, _ := cmd.Flags().GetStringSlice("query-codes")
			top, _ := cmd.Flags().GetInt("top")
			noCache, _ := cmd.Flags().GetBool("no-cache")
			refresh, _ := cmd.Flags().GetBool("refresh-cache")

			ctx, run := a.startRun(cmd)
			defer a.endRun(run)

			c, err := a.loadCollection(ctx)
			if err != nil {
				return err
			}

			opts := evaluation.SweepOptions{
				DocCodes:   docCodes,
				QueryCodes: queryCodes,
				RankLimit:  a.cfg.Evaluation.RankLimit,
				Workers:    a.cfg.Evaluation.Workers,
				Policy:     evaluation.DegeneratePolicy(a.cfg.Evaluation.DegeneratePolicy),
			}
			var cache *resultcache.Cache
			if !noCache {
				var closeCache func()
				cache, closeCache = a.resultCache()
				defer closeCache()
			}
			if cache != nil {
				if refresh {
					if err := cache.Invalidate(ctx); err != nil {
						return err
					}
				}
				opts.Cache = cache
			}

			sctx, span := tracing.Start(ctx, "sweep")
			results, err := a.evaluator().Sweep(sctx, c, opts)
			span.SetAttr("combinations", len(results))
			span.End()
			if err != nil {
				return err
			}
			if cache != nil {
				hits, misses := cache.Stats()
				slog.Info("result cache", "hits", hits, "misses", misses)
			}

			if err := a.export(ctx, results); err != nil {
				return err
			}
			return a.printSweep(c.Name, results, top)
		},
	}
	addCollectionFlags(cmd)
	cmd.Flags().StringSlice("doc-codes", nil, "document weightings to try (default all)")
	cmd.Flags().StringSlice("query-codes", nil, "query weightings to try (default all)")
	cmd.Flags().Int("top", 0, "print only the best N combinations (0 prints all)")
	cmd.Flags().Bool("no-cache", false, "ignore the result cache")
	cmd.Flags().Bool("refresh-cache", false, "drop every cached result before sweeping")
	cmd.MarkFlagsMutuallyExclusive("no-cache", "refresh-cache")
	return cmd
}

// resultCache builds the configured cache. A nil cache means caching is
// off. An unreachable Redis disables caching rather than failing the sweep.
func (a *app) resultCache() (*resultcache.Cache, func()) {
	var opts []resultcache.Option
	if a.metrics != nil {
		opts = append(opts, resultcache.WithObserver(a.metrics))
	}
	cc := a.cfg.Cache
	switch cc.Type {
	case "memory":
		return resultcache.New(resultcache.NewMemoryStore(), cc.TTL, opts...), func() {}
	case "redis":
		client, err := pkgredis.NewClient(a.cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
			return nil, func() {}
		}
		breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, _, to resilience.State) {
				if a.metrics != nil {
					a.metrics.SetCircuitState(name, int(to))
				}
			},
		})
		slog.Info("result cache enabled", "addr", a.cfg.Redis.Addr, "ttl", cc.TTL)
		store := resultcache.NewGuardedStore(client, breaker)
		return resultcache.New(store, cc.TTL, opts...), func() { client.Close() }
	default:
		return nil, func() {}
	}
}

func (a *app) export(ctx context.Context, results []evaluation.SweepResult) error {
	if len(a.cfg.Export.Sinks) == 0 {
		return nil
	}
	ctx, span := tracing.Start(ctx, "export")
	defer span.End()
	sinks, err := export.Open(a.cfg, a.runID)
	if err != nil {
		return err
	}
	span.SetAttr("sinks", sinks.Len())
	writeErr := sinks.Write(ctx, results)
	closeErr := sinks.Close()
	if writeErr != nil {
		return fmt.Errorf("exporting results: %w", writeErr)
	}
	return closeErr
}

func (a *app) printSweep(name string, results []evaluation.SweepResult, top int) error {
	ranked := make([]evaluation.SweepResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MAP > ranked[j].MAP })
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	if a.format == "json" {
		return writeJSON(a.out, struct {
			Collection string                   `json:"collection"`
			RunID      string                   `json:"run_id"`
			Results    []evaluation.SweepResult `json:"results"`
		}{name, a.runID, ranked})
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tdoc.query\tMAP\tevaluated\texcluded")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%d\n", i+1, r.Combination(), r.MAP, r.Evaluated, r.Excluded)
	}
	return tw.Flush()
}
