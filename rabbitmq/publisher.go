package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"
)

const defaultDialTimeout = 30 * time.Second

// Config describes where report messages go.
type Config struct {
	URL         string
	Exchange    string
	RoutingKey  string
	DialTimeout time.Duration
}

// Message is one JSON payload with its AMQP metadata.
type Message struct {
	ID   string
	Type string
	Body interface{}
}

// Publisher sends JSON messages to a durable direct exchange. The connection
// is re-established lazily when the broker drops it.
type Publisher struct {
	cfg Config

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  chan *amqp.Error
}

// NewPublisher dials the broker and declares the exchange
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	p := &Publisher{cfg: cfg}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.dialLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// Publish marshals msg.Body and publishes it as a persistent message.
// A dropped connection is redialed once before giving up.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Type, err)
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if !p.connectedLocked() {
			p.resetLocked()
			if err = p.dialLocked(); err != nil {
				continue
			}
		}
		err = p.channel.Publish(p.cfg.Exchange, p.cfg.RoutingKey, false, false, publishing)
		if err == nil {
			return nil
		}
		log.WithError(err).Warn("RabbitMQ publish failed, reconnecting")
		p.resetLocked()
	}
	return fmt.Errorf("failed to publish %s message %s: %w", msg.Type, msg.ID, err)
}

// IsConnected reports whether the broker connection is currently open.
func (p *Publisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedLocked()
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil && err == nil {
			err = connErr
		}
	}
	p.channel, p.conn, p.closed = nil, nil, nil
	return err
}

func (p *Publisher) connectedLocked() bool {
	if p.conn == nil || p.channel == nil || p.conn.IsClosed() {
		return false
	}
	select {
	case <-p.closed:
		return false
	default:
		return true
	}
}

func (p *Publisher) dialLocked() error {
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(p.cfg.DialTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// durable, not auto-deleted, not internal, wait for confirmation
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %q: %w", p.cfg.Exchange, err)
	}

	p.conn = conn
	p.channel = ch
	p.closed = ch.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

func (p *Publisher) resetLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.channel, p.conn, p.closed = nil, nil, nil
}
