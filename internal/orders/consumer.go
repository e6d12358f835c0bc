package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/BITS4/babyshop/internal/domain"
	"github.com/BITS4/babyshop/internal/mailer"
)

// messageReader is the slice of kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer listens for completed orders and sends the confirmation mail.
// Failures are logged and the message is moved past; nothing is retried.
type Consumer struct {
	reader messageReader
	sender mailer.Sender
	log    zerolog.Logger
}

func NewConsumer(sender mailer.Sender, log zerolog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-created",
		GroupID:  "order-mailer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		reader: reader,
		sender: sender,
		log:    log.With().Str("component", "order-mailer").Logger(),
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing reader")
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error().Err(err).Msg("error reading message")
		}
		return
	}

	var order domain.Order
	if errUnmarshal := json.Unmarshal(m.Value, &order); errUnmarshal != nil {
		c.log.Error().Err(errUnmarshal).Msg("error parsing order event")
		return
	}
	if order.Email == "" {
		c.log.Error().Str("order_id", order.ID.String()).Msg("order event without email")
		return
	}

	if errSend := c.sender.Send(order.Email, "Your babyshop order", confirmationBody(&order)); errSend != nil {
		c.log.Error().Err(errSend).Str("order_id", order.ID.String()).Msg("confirmation mail failed")
	}
}

func confirmationBody(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nthanks for your order %s.\n\n", order.Name, order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "  %s x %d = %.2f\n", it.Name, it.Quantity, it.Price*float64(it.Quantity))
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\nShipping to: %s\n", order.Total, order.Address)
	return b.String()
}
