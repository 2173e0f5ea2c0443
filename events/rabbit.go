package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitConfig locates the broker.
type RabbitConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string // default "/"
	UseTLS   bool
	Exchange string // default "backoffice_events"
}

// Rabbit publishes events to a topic exchange with publisher confirms.
type Rabbit struct {
	conn     *amqp.Connection
	ch       confirmChannel
	exchange string
}

var _ Pinger = (*Rabbit)(nil)

// confirmChannel publishes one message and hands back its own confirmation,
// so a caller that gives up waiting never leaves an ack for the next one.
type confirmChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type amqpChannel struct{ *amqp.Channel }

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// DialRabbit connects, declares the exchange and enables confirms.
func DialRabbit(cfg RabbitConfig) (*Rabbit, error) {
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "backoffice_events"
	}
	scheme := "amqp"
	if cfg.UseTLS {
		scheme = "amqps"
	}
	url := fmt.Sprintf("%s://%s:%s@%s:%d/%s",
		scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	var (
		conn *amqp.Connection
		err  error
	)
	if cfg.UseTLS {
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &Rabbit{conn: conn, ch: amqpChannel{ch}, exchange: cfg.Exchange}, nil
}

// Ping reports whether the connection is still open.
func (r *Rabbit) Ping() error {
	if r.conn == nil || r.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Publish sends e and waits for the broker's ack of that message.
func (r *Rabbit) Publish(ctx context.Context, e Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}

	conf, err := r.ch.publish(ctx, r.exchange, string(e.Type), msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	ack, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ack {
		return errors.New("publish NACK from broker")
	}
	return nil
}

func message(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Body:          body,
		MessageId:     fmt.Sprintf("%d", time.Now().UnixNano()),
		CorrelationId: e.Subject,
		Timestamp:     e.OccurredAt.UTC(),
		Headers:       amqp.Table{"x-source": "backoffice"},
	}, nil
}

func (r *Rabbit) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
