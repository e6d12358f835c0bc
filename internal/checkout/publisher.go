package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/BITS4/babyshop/internal/domain"
)

// OrderPublisher announces completed orders. Publishing is best effort and
// independent of the order insert; there is no atomicity between the two.
type OrderPublisher interface {
	Publish(ctx context.Context, order *domain.Order) error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *kafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-created",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &kafkaPublisher{writer: w}
}

func (p *kafkaPublisher) Publish(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
