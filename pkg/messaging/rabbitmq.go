package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"carpool/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL            string
	Exchange       string
	ConnectRetries int
	RetryInterval  time.Duration
	// DialTimeout bounds the TCP connect of every (re)dial.
	DialTimeout    time.Duration
}

const defaultDialTimeout = 5 * time.Second

// Publisher publishes JSON events to a durable topic exchange. A closed
// connection is re-dialled on the next publish.
type Publisher struct {
	config Config
	log    *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(config Config, log *logger.Logger) (*Publisher, error) {
	p := &Publisher{config: config, log: log}

	var err error
	attempts := config.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		if err = p.connect(); err == nil {
			return p, nil
		}
		log.WithError(err).Warnf("RabbitMQ not ready, retrying (%d/%d)", i, attempts)
		if i < attempts {
			time.Sleep(config.RetryInterval)
		}
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
}

// connect must be called with mu held or before the publisher is shared.
func (p *Publisher) connect() error {
	timeout := p.config.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	conn, err := amqp.DialConfig(p.config.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	err = ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // kind
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.config.Exchange, err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if p.conn != nil && !p.conn.IsClosed() {
			p.conn.Close()
		}
		if err := p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
		}
		p.log.Info("Reconnected to RabbitMQ")
	}

	err = p.ch.PublishWithContext(ctx,
		p.config.Exchange, // exchange
		routingKey,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
