package repository

import (
	"context"
	"fmt"

	"DarkPull/internal/domain/models"
	domrepo "DarkPull/internal/domain/repository"
	pkgkafka "DarkPull/pkg/kafka"
)

// Publisher is the subset of pkg/kafka.Producer the notifier needs.
type Publisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaNotifier publishes one message per profitable scenario keyed by ticker,
// followed by the run summary keyed by run id.
type KafkaNotifier struct {
	pub   Publisher
	topic string
	max   int
}

// NewKafkaNotifier creates a notifier; max bounds the scenarios sent (0 = all).
func NewKafkaNotifier(pub Publisher, topic string, max int) domrepo.NotificationSink {
	return &KafkaNotifier{pub: pub, topic: topic, max: max}
}

type scenarioMessage struct {
	Type   string                `json:"type"`
	RunID  string                `json:"run_id"`
	Date   string                `json:"date"`
	Rank   int                   `json:"rank"`
	Result models.BacktestResult `json:"result"`
}

type summaryMessage struct {
	Type    string            `json:"type"`
	Summary models.RunSummary `json:"summary"`
}

func (n *KafkaNotifier) Notify(ctx context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error) {
	if n.max > 0 && len(scenarios) > n.max {
		scenarios = scenarios[:n.max]
	}
	headers := map[string]string{"run_id": summary.RunID}
	msgs := make([]pkgkafka.Message, 0, len(scenarios)+1)
	for i, r := range scenarios {
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(r.Scenario.Ticker),
			Value:   scenarioMessage{Type: "scenario", RunID: summary.RunID, Date: summary.Date, Rank: i + 1, Result: r},
			Headers: headers,
		})
	}
	msgs = append(msgs, pkgkafka.Message{
		Key:     []byte(summary.RunID),
		Value:   summaryMessage{Type: "summary", Summary: summary},
		Headers: headers,
	})

	if err := n.pub.PublishBatch(ctx, n.topic, msgs); err != nil {
		return models.NotifyResult{Channel: "kafka"}, fmt.Errorf("publish alerts: %w", err)
	}
	return models.NotifyResult{Delivered: true, Channel: "kafka"}, nil
}
