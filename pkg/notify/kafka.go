package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/order-fulfillment/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka publishes each notification as one message on a fixed topic, keyed
// by the emitting service so a service's notifications stay ordered.
type Kafka struct {
	log      *slog.Logger
	producer Producer
	topic    string
	source   string
	timeout  time.Duration
}

func NewKafka(log *slog.Logger, producer Producer, topic, source string) *Kafka {
	return &Kafka{log: log, producer: producer, topic: topic, source: source, timeout: 2 * time.Second}
}

// NewWriter builds an async writer; WriteMessages returns once the message is
// queued, which keeps Notify off the request's critical path.
func NewWriter(brokers []string, log *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("notification delivery failed", "count", len(msgs), "err", err)
			}
		},
	}
}

func (k *Kafka) Notify(ctx context.Context, msg string) {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte("notification")},
		{Key: "source", Value: []byte(k.source)},
	}
	headers = tracing.InjectKafkaHeaders(ctx, headers)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()

	m := kafka.Message{
		Topic:   k.topic,
		Key:     []byte(k.source),
		Value:   []byte(msg),
		Headers: headers,
		Time:    time.Now().UTC(),
	}
	if err := k.producer.WriteMessages(ctx, m); err != nil {
		k.log.Warn("notification dropped", "topic", k.topic, "message", msg, "err", err)
		return
	}
	k.log.Debug("notification published", "topic", k.topic, "message", msg)
}
