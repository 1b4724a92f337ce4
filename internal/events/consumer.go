package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/observability"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
}

// DecodeQuote parses a message value written by PublishQuote.
func DecodeQuote(b []byte) (QuoteEvent, error) {
	var ev QuoteEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return QuoteEvent{}, fmt.Errorf("events: decode quote: %w", err)
	}
	if ev.Type != TypeFareQuoted {
		return QuoteEvent{}, fmt.Errorf("events: unexpected event type %q", ev.Type)
	}
	return ev, nil
}

// Consumer reads quote events until its context ends. Read errors back off
// exponentially between InitialBackoff and MaxBackoff; undecodable messages
// and handler failures are logged and skipped.
type Consumer struct {
	Reader         MessageReader
	Handle         func(ctx context.Context, ev QuoteEvent) error
	Logger         *slog.Logger
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c *Consumer) Run(ctx context.Context) {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	initial, maxBackoff := c.InitialBackoff, c.MaxBackoff
	if initial <= 0 {
		initial = time.Second
	}
	if maxBackoff < initial {
		maxBackoff = 30 * initial
	}

	backoff := initial
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("quote consumer stopping")
				return
			}
			logger.Warn("kafka read failed", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initial

		ev, err := DecodeQuote(m.Value)
		if err != nil {
			observability.QuotesConsumed.WithLabelValues(observability.OutcomeInvalid).Inc()
			logger.Warn("invalid quote message", "offset", m.Offset, "error", err)
			continue
		}
		if err := c.Handle(ctx, ev); err != nil {
			observability.QuotesConsumed.WithLabelValues(observability.OutcomeFailed).Inc()
			logger.Error("quote handler failed", "session_id", ev.Quote.SessionID, "error", err)
			continue
		}
		observability.QuotesConsumed.WithLabelValues(observability.OutcomeOK).Inc()
	}
}
