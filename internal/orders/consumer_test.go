package orders

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BITS4/babyshop/internal/domain"
)

type mockReader struct {
	m        sync.Mutex
	messages []kafka.Message
}

func (m *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.m.Lock()
	if len(m.messages) > 0 {
		msg := m.messages[0]
		m.messages = m.messages[1:]
		m.m.Unlock()
		return msg, nil
	}
	m.m.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockReader) Close() error { return nil }

type mockSender struct {
	m    sync.Mutex
	sent []struct{ to, subject, body string }
	err  error
}

func (m *mockSender) Send(to, subject, body string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ to, subject, body string }{to, subject, body})
	return nil
}

func (m *mockSender) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.sent)
}

func orderMessage(t *testing.T, order *domain.Order) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(order)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(order.ID.String()), Value: payload}
}

func TestConsumer_SendsConfirmationMail(t *testing.T) {
	order := &domain.Order{
		ID:      uuid.New(),
		Email:   "someone@gmail.com",
		Name:    "Someone",
		Address: "Somewhere 1",
		Items:   []domain.CartItem{{ProductID: 1, Name: "Fluffy Onesie", Price: 29.99, Quantity: 2}},
		Total:   59.98,
	}
	reader := &mockReader{messages: []kafka.Message{orderMessage(t, order)}}
	sender := &mockSender{}
	sut := &Consumer{reader: reader, sender: sender, log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	go sut.Run(ctx)

	require.Eventually(t, func() bool {
		return sender.count() == 1
	}, time.Second, 10*time.Millisecond, "confirmation mail never sent")
	cancel()

	sender.m.Lock()
	defer sender.m.Unlock()
	assert.Equal(t, "someone@gmail.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].body, "Fluffy Onesie")
	assert.Contains(t, sender.sent[0].body, "Somewhere 1")
}

func TestConsumer_SkipsMalformedPayload(t *testing.T) {
	good := &domain.Order{ID: uuid.New(), Email: "someone@gmail.com", Name: "Someone"}
	reader := &mockReader{messages: []kafka.Message{
		{Value: []byte("not json")},
		orderMessage(t, good),
	}}
	sender := &mockSender{}
	sut := &Consumer{reader: reader, sender: sender, log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	go sut.Run(ctx)

	require.Eventually(t, func() bool {
		return sender.count() == 1
	}, time.Second, 10*time.Millisecond, "good message behind a bad one was not processed")
	cancel()
}

func TestConsumer_MissingEmailIsSkipped(t *testing.T) {
	noEmail := &domain.Order{ID: uuid.New(), Name: "Someone"}
	reader := &mockReader{messages: []kafka.Message{orderMessage(t, noEmail)}}
	sender := &mockSender{}
	sut := &Consumer{reader: reader, sender: sender, log: zerolog.Nop()}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sut.Run(ctx)

	assert.Equal(t, 0, sender.count())
}
