package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/tracing"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg      *config.Config
	format   string
	runID    string
	out      io.Writer
	metrics  *metrics.Metrics
	shutdown func(context.Context) error
}

func (a *app) init(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := applyFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.format, _ = flags.GetString("format")
	if a.format != "text" && a.format != "json" {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "invalid output format %q (must be text or json)", a.format)
	}
	a.out = cmd.OutOrStdout()
	a.runID = newRunID()

	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		a.metrics = metrics.New(reg)
		a.shutdown = metrics.StartServer(cfg.Metrics.Port, reg)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}

func (a *app) context(cmd *cobra.Command) context.Context {
	return logger.WithRunID(cmd.Context(), a.runID)
}

func (a *app) evaluator() *evaluation.Evaluator {
	var opts []evaluation.Option
	if a.metrics != nil {
		opts = append(opts, evaluation.WithRecorder(a.metrics))
	}
	return evaluation.NewEvaluator(opts...)
}

func (a *app) loadCollection(ctx context.Context) (*corpus.Collection, error) {
	_, span := tracing.Start(ctx, "load")
	defer span.End()
	cc := a.cfg.Collection
	analyzer := tokenizer.New(tokenizer.Options{Stem: cc.Stem})
	c, err := collection.Load(cc.Dir, cc.Name, analyzer, collection.Options{IncludeTitle: cc.IncludeTitle})
	if err != nil {
		return nil, err
	}
	span.SetAttr("documents", len(c.Documents))
	span.SetAttr("queries", len(c.Queries))
	return c, nil
}

func (a *app) evaluationOptions() (evaluation.Options, error) {
	ec := a.cfg.Evaluation
	doc, err := weighting.Parse(ec.DocWeighting)
	if err != nil {
		return evaluation.Options{}, err
	}
	query, err := weighting.Parse(ec.QueryWeighting)
	if err != nil {
		return evaluation.Options{}, err
	}
	policy, err := evaluation.ParsePolicy(ec.DegeneratePolicy)
	if err != nil {
		return evaluation.Options{}, err
	}
	return evaluation.Options{
		DocWeighting:   doc,
		QueryWeighting: query,
		RankLimit:      ec.RankLimit,
		Workers:        ec.Workers,
		Policy:         policy,
	}, nil
}

// startRun opens the root span for a command.
func (a *app) startRun(cmd *cobra.Command) (context.Context, *tracing.Span) {
	return tracing.StartRun(a.context(cmd), cmd.Name(), a.runID)
}

func (a *app) endRun(span *tracing.Span) {
	span.End()
	span.Log(slog.Default())
}

func addCollectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("collection", "", "collection name ("+strings.Join(collection.Names(), ", ")+")")
	f.String("dir", "", "directory holding <collection>.all, .qry and .rel")
	f.Bool("stem", false, "apply the Porter stemmer")
	f.Bool("include-title", false, "index document titles as well as bodies")
	f.Int("rank-limit", 0, "number of top ranks scored by average precision")
	f.Int("workers", 0, "concurrent queries or weighting combinations")
	f.String("policy", "", "queries with no relevant documents: exclude or zero")
}

func addWeightingFlags(cmd *cobra.Command) {
	cmd.Flags().String("doc", "", "document weighting triplet, e.g. ltc")
	cmd.Flags().String("query", "", "query weighting triplet, e.g. ntc")
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil {
			return
		}
		if f := flags.Lookup(name); f != nil && f.Changed {
			err = apply()
		}
	}
	set("log-level", func() (e error) { cfg.Logging.Level, e = flags.GetString("log-level"); return })
	set("collection", func() (e error) { cfg.Collection.Name, e = flags.GetString("collection"); return })
	set("dir", func() (e error) { cfg.Collection.Dir, e = flags.GetString("dir"); return })
	set("stem", func() (e error) { cfg.Collection.Stem, e = flags.GetBool("stem"); return })
	set("include-title", func() (e error) { cfg.Collection.IncludeTitle, e = flags.GetBool("include-title"); return })
	set("rank-limit", func() (e error) { cfg.Evaluation.RankLimit, e = flags.GetInt("rank-limit"); return })
	set("workers", func() (e error) { cfg.Evaluation.Workers, e = flags.GetInt("workers"); return })
	set("policy", func() (e error) { cfg.Evaluation.DegeneratePolicy, e = flags.GetString("policy"); return })
	set("doc", func() (e error) { cfg.Evaluation.DocWeighting, e = flags.GetString("doc"); return })
	set("query", func() (e error) { cfg.Evaluation.QueryWeighting, e = flags.GetString("query"); return })
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}
	return nil
}

func newRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
