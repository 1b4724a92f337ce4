// Package events publishes fare quotes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/observability"
)

const TypeFareQuoted = "fare_quoted"

// QuoteEvent is the JSON value written for every successful prediction.
type QuoteEvent struct {
	Type     string       `json:"type"`
	QuotedAt time.Time    `json:"quoted_at"`
	Quote    models.Quote `json:"quote"`
}

type Publisher interface {
	PublishQuote(ctx context.Context, q models.Quote) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return NewPublisher(w)
}

// NewPublisher wraps an existing writer. Messages are keyed by session id so
// one session's quotes land on one partition.
func NewPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: 2 * time.Second, now: time.Now}
}

func (k *KafkaPublisher) PublishQuote(ctx context.Context, q models.Quote) (err error) {
	defer func() {
		outcome := observability.OutcomeOK
		if err != nil {
			outcome = observability.OutcomeNetwork
		}
		observability.QuotesPublished.WithLabelValues(outcome).Inc()
	}()

	b, err := json.Marshal(QuoteEvent{Type: TypeFareQuoted, QuotedAt: k.now().UTC(), Quote: q})
	if err != nil {
		return fmt.Errorf("events: encode quote: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(q.SessionID), Value: b}); err != nil {
		return fmt.Errorf("events: write quote: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// Nop drops every quote. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishQuote(context.Context, models.Quote) error { return nil }
func (Nop) Close() error                                     { return nil }
