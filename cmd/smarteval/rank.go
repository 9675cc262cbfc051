package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

func rankCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rank",
		Short:   "Print the ranking of a single query",
		Example: `  smarteval rank --collection adi --dir data/adi --doc ltc --query ltc --query-id 7 --limit 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, _ := cmd.Flags().GetInt64("query-id")
			limit, _ := cmd.Flags().GetInt("limit")
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
			query, ok := findQuery(c.Queries, queryID)
			if !ok {
				return apperrors.Newf(apperrors.ErrUnknownQuery, "query %d not in collection %s", queryID, c.Name)
			}
			engine, err := a.evaluator().BuildEngine(c.Documents, opts.DocWeighting)
			if err != nil {
				return err
			}
			result := executor.New(engine, opts.QueryWeighting, 1).Rank(query)
			relevant, _ := c.Relevance.Relevant(queryID)

			ranking := result.Ranking
			if limit > 0 && limit < len(ranking) {
				ranking = ranking[:limit]
			}
			return a.printRanking(result, ranking, relevant)
		},
	}
	addCollectionFlags(cmd)
	addWeightingFlags(cmd)
	cmd.Flags().Int64("query-id", 0, "query to rank")
	cmd.Flags().Int("limit", 0, "print only the top N documents (0 prints all)")
	_ = cmd.MarkFlagRequired("query-id")
	return cmd
}

func findQuery(queries []corpus.Query, id int64) (corpus.Query, bool) {
	for _, q := range queries {
		if q.ID == id {
			return q, true
		}
	}
	return corpus.Query{}, false
}

func (a *app) printRanking(result *executor.Result, ranking []ranker.ScoredDoc, relevant map[int64]struct{}) error {
	if a.format == "json" {
		type row struct {
			Rank     int     `json:"rank"`
			DocID    int64   `json:"doc_id"`
			Score    float64 `json:"score"`
			Relevant bool    `json:"relevant"`
		}
		rows := make([]row, len(ranking))
		for i, sd := range ranking {
			_, rel := relevant[sd.DocID]
			rows[i] = row{Rank: i + 1, DocID: sd.DocID, Score: sd.Score, Relevant: rel}
		}
		return writeJSON(a.out, struct {
			QueryID int64              `json:"query_id"`
			Weights map[string]float64 `json:"weights"`
			Ranking []row              `json:"ranking"`
		}{result.QueryID, result.Weights, rows})
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tdoc\tscore\trelevant")
	for i, sd := range ranking {
		mark := ""
		if _, ok := relevant[sd.DocID]; ok {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%d\t%.6f\t%s\n", i+1, sd.DocID, sd.Score, mark)
	}
	return tw.Flush()
}
