package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/redis"
)

func checkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the collection files and every configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := a.checker().Run(a.context(cmd))
			if err := a.printHealth(report); err != nil {
				return err
			}
			if report.Status == health.StatusDown {
				return apperrors.New(apperrors.ErrInvalidConfig, "required backend unavailable")
			}
			return nil
		},
	}
	addCollectionFlags(cmd)
	return cmd
}

func (a *app) checker() *health.Checker {
	c := health.NewChecker(5 * time.Second)
	cfg := a.cfg

	c.Register("collection", func(context.Context) error {
		for _, ext := range []string{".all", ".qry", ".rel"} {
			path := filepath.Join(cfg.Collection.Dir, cfg.Collection.Name+ext)
			if _, err := os.Stat(path); err != nil {
				return err
			}
		}
		return nil
	})
	if cfg.Cache.Type == "redis" {
		c.RegisterOptional("redis", func(ctx context.Context) error {
			client, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(ctx)
		})
	}
	for _, sink := range cfg.Export.Sinks {
		switch sink {
		case "postgres":
			c.Register("postgres", func(ctx context.Context) error {
				client, err := postgres.New(cfg.Postgres)
				if err != nil {
					return err
				}
				defer client.Close()
				return client.Ping(ctx)
			})
		case "kafka":
			c.Register("kafka", func(ctx context.Context) error {
				return kafka.Ping(ctx, cfg.Kafka.Brokers)
			})
		case "csv":
			c.Register("csv", func(context.Context) error {
				dir := filepath.Dir(cfg.Export.CSVPath)
				info, err := os.Stat(dir)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", dir)
				}
				return nil
			})
		}
	}
	return c
}

func (a *app) printHealth(r health.Report) error {
	if a.format == "json" {
		return writeJSON(a.out, r)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "component\tstatus\tlatency\tmessage")
	for _, comp := range r.Components {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", comp.Name, comp.Status, comp.Latency, comp.Message)
	}
	fmt.Fprintf(tw, "overall\t%s\t\t\n", r.Status)
	return tw.Flush()
}
