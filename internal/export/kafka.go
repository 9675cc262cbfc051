package export

import (
	"context"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/kafka"
)

// Publisher is the part of kafka.Producer the sink uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

// KafkaSink publishes one event per combination, keyed "doc.query".
type KafkaSink struct {
	publisher Publisher
	runID     string
}

func NewKafkaSink(p Publisher, runID string) *KafkaSink {
	return &KafkaSink{publisher: p, runID: runID}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, results []evaluation.SweepResult) error {
	events := make([]kafka.Event, len(results))
	for i, r := range results {
		events[i] = kafka.Event{
			Key:   r.Combination(),
			Value: r,
			Headers: map[string]string{
				"run_id":     s.runID,
				"rank_limit": strconv.Itoa(r.RankLimit),
			},
		}
	}
	return s.publisher.PublishBatch(ctx, events)
}

func (s *KafkaSink) Close() error {
	return s.publisher.Close()
}
