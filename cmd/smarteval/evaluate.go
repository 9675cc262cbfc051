package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/tracing"
)

func evaluateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute MAP for one document/query weighting pair",
		Example: `  smarteval evaluate --collection adi --dir data/adi --doc atc --query ntc
  smarteval evaluate --collection cran --dir data/cran --doc lnc --query ltc --stem --per-query`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			perQuery, _ := cmd.Flags().GetBool("per-query")
			opts, err := a.evaluationOptions()
			if err != nil {
				return err
			}
			ctx, run := a.startRun(cmd)
			defer a.endRun(run)

			c, err := a.loadCollection(ctx)
			if err != nil {
				return err
			}
			ev := a.evaluator()

			_, span := tracing.Start(ctx, "index")
			engine, err := ev.BuildEngine(c.Documents, opts.DocWeighting)
			if err != nil {
				span.End()
				return err
			}
			span.SetAttr("postings", engine.Index().Size())
			span.End()

			ectx, span := tracing.Start(ctx, "evaluate")
			report, err := ev.EvaluateEngine(ectx, engine, c.Queries, c.Relevance, opts)
			span.End()
			if err != nil {
				return err
			}
			return a.printReport(c.Name, report, perQuery)
		},
	}
	addCollectionFlags(cmd)
	addWeightingFlags(cmd)
	cmd.Flags().Bool("per-query", false, "list the measures of every evaluated query")
	return cmd
}

func (a *app) printReport(name string, r *evaluation.Report, perQuery bool) error {
	if a.format == "json" {
		return writeJSON(a.out, struct {
			Collection string `json:"collection"`
			RunID      string `json:"run_id"`
			*evaluation.Report
		}{name, a.runID, r})
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "collection:\t%s\n", name)
	fmt.Fprintf(tw, "weighting:\t%s.%s\n", r.DocWeighting, r.QueryWeighting)
	fmt.Fprintf(tw, "rank limit:\t%d\n", r.RankLimit)
	fmt.Fprintf(tw, "MAP:\t%.4f\n", r.MAP)
	fmt.Fprintf(tw, "evaluated:\t%d\n", r.Evaluated)
	fmt.Fprintf(tw, "excluded:\t%d%s\n", len(r.Excluded), excludedSummary(r.Excluded))
	if err := tw.Flush(); err != nil {
		return err
	}
	if !perQuery {
		return nil
	}

	ids := make([]int64, 0, len(r.PerQuery))
	for id := range r.PerQuery {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintln(a.out)
	tw = tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "query\tAP\tP@%d\tR@%d\tRR\tretrieved\t\n", r.RankLimit, r.RankLimit)
	for _, id := range ids {
		q := r.PerQuery[id]
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%d\t\n", id, q.AP, q.PrecisionAtK, q.RecallAtK, q.ReciprocalRank, q.Retrieved)
	}
	return tw.Flush()
}

func excludedSummary(excluded []evaluation.ExcludedQuery) string {
	if len(excluded) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, e := range excluded {
		counts[e.Reason]++
	}
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, counts[reason])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
