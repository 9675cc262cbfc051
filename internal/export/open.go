package export

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/postgres"
)

// Open builds the sinks listed in cfg.Sinks. Sinks opened before a failure
// are closed again.
func Open(cfg *config.Config, runID string) (*Multi, error) {
	var sinks []Sink
	fail := func(err error) (*Multi, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}
	for _, name := range cfg.Export.Sinks {
		switch name {
		case "csv":
			s, err := CreateCSV(cfg.Export.CSVPath)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)
		case "postgres":
			client, err := postgres.New(cfg.Postgres)
			if err != nil {
				return fail(fmt.Errorf("opening postgres sink: %w", err))
			}
			sinks = append(sinks, NewPostgresSink(client, cfg.Export.PostgresTable, runID))
		case "kafka":
			sinks = append(sinks, NewKafkaSink(kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topic), runID))
		default:
			return fail(fmt.Errorf("unknown export sink %q", name))
		}
	}
	return NewMulti(cfg.Export.Timeout, sinks...), nil
}
