// Package kafka publishes audit records to the pipeline topic consumed by the
// long-term audit store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "orgguard/pkg/platform/audit"
)

// Producer implements audit.Sink on a kafka topic. Records are keyed by
// invocation ID so all outcomes of one invocation land on one partition in
// emission order.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// Option configures the Producer.
type Option func(*Producer)

// WithLogger sets a logger for connection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = logger
	}
}

// NewProducer connects to the brokers and ensures the topic exists.
func NewProducer(ctx context.Context, brokers []string, topic string, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Producer{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *Producer) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	res, err := adm.CreateTopic(ctx, 1, 1, nil, p.topic)
	if err == nil {
		err = res.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("ensure topic %q: %w", p.topic, err)
	}
	if p.logger != nil {
		p.logger.Info("audit topic ready", "topic", p.topic)
	}
	return nil
}

// record is the JSON wire format on the audit topic.
type record struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	InvocationID  string `json:"invocation_id"`
	SourceEventID string `json:"source_event_id,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
	PolicyID      string `json:"policy_id,omitempty"`
	Action        string `json:"action"`
	Detail        string `json:"detail,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// Publish produces one record synchronously.
func (p *Producer) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(record{
		ID:            event.ID.String(),
		Timestamp:     event.Timestamp.Format(time.RFC3339Nano),
		InvocationID:  event.InvocationID,
		SourceEventID: event.SourceEventID,
		AccountID:     event.AccountID,
		PolicyID:      event.PolicyID,
		Action:        event.Action,
		Detail:        event.Detail,
		RequestID:     event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.InvocationID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes and releases the kafka client.
func (p *Producer) Close() {
	p.client.Close()
}
