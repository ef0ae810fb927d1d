package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mallorder/internal/config"
	"mallorder/pkg/utils"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// OrderEvent is published after an order lifecycle transition commits.
type OrderEvent struct {
	Kind          string          `json:"kind"`
	OrderNo       string          `json:"order_no"`
	UserID        int64           `json:"user_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	ActualAmount  decimal.Decimal `json:"actual_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(logger *slog.Logger, cfg config.Kafka) *kafkaPublisher {
	return &kafkaPublisher{
		logger: logger.With(slog.String("component", "events")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

// Publish writes the event keyed by order number, retrying transient
// broker failures with backoff.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderNo),
		Value: data,
	}

	cfg := utils.RetryConfig{
		InitialDelay: 50 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	return utils.Retry(cfg, func() error {
		return p.writer.WriteMessages(ctx, msg)
	}, context.Canceled)
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
