package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange   = "backing-service-exchange"
	DefaultRoutingKey = "backing-service-routing-key"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Rabbit struct {
	log        *slog.Logger
	ch         Channel
	exchange   string
	routingKey string
	timeout    time.Duration
}

func NewRabbit(log *slog.Logger, ch Channel, exchange, routingKey string) *Rabbit {
	return &Rabbit{log: log, ch: ch, exchange: exchange, routingKey: routingKey, timeout: 2 * time.Second}
}

// DialRabbit connects, opens a channel and declares the durable topic exchange.
// The caller owns the returned connection.
func DialRabbit(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return conn, ch, nil
}

func (r *Rabbit) Notify(ctx context.Context, msg string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	err := r.ch.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Timestamp:   time.Now().UTC(),
		Body:        []byte(msg),
	})
	if err != nil {
		r.log.Warn("notification dropped", "exchange", r.exchange, "message", msg, "err", err)
		return
	}
	r.log.Debug("notification published", "exchange", r.exchange, "message", msg)
}
