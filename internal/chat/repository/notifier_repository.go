package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"owner_chat_service/internal/chat/domain"
	"owner_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Notifier hands a persisted message to an external notification channel
type Notifier interface {
	Notify(ctx context.Context, msg domain.Message) error
	Close() error
}

// NotificationEvent body published for downstream notification services
type NotificationEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

func encodeNotification(msg domain.Message) ([]byte, error) {
	return json.Marshal(NotificationEvent{Type: string(domain.EventNewMessage), Message: msg})
}

// KafkaNotifier publishes to a kafka topic keyed by receiver id
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier wraps an already connected writer
func NewKafkaNotifier(w *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

func (k *KafkaNotifier) Notify(ctx context.Context, msg domain.Message) error {
	body, err := encodeNotification(msg)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ReceiverID),
		Value: body,
		Time:  msg.CreatedAt,
	})
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

// RabbitNotifier publishes to a topic exchange, routing key <prefix>.<receiverID>
type RabbitNotifier struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitNotifier uses ch, which must already have exchange declared
func NewRabbitNotifier(conn *amqp.Connection, ch *amqp.Channel, exchange, routingKey string) *RabbitNotifier {
	return &RabbitNotifier{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey}
}

func (r *RabbitNotifier) Notify(_ context.Context, msg domain.Message) error {
	body, err := encodeNotification(msg)
	if err != nil {
		return err
	}
	return r.ch.Publish(r.exchange, r.routingKey+"."+msg.ReceiverID, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.CreatedAt,
		Body:         body,
	})
}

func (r *RabbitNotifier) Close() error {
	if err := r.ch.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// BreakerNotifier stops calling next after consecutive failures until the reset timeout passes
type BreakerNotifier struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerNotifier trips after maxFailures consecutive failures and half-opens after reset
func NewBreakerNotifier(next Notifier, name string, maxFailures uint32, reset time.Duration) *BreakerNotifier {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     reset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Log.Warn("notifier breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &BreakerNotifier{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerNotifier) Notify(ctx context.Context, msg domain.Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Notify(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", b.cb.Name(), err)
	}
	return nil
}

func (b *BreakerNotifier) Close() error {
	return b.next.Close()
}

// State current breaker state
func (b *BreakerNotifier) State() gobreaker.State {
	return b.cb.State()
}
