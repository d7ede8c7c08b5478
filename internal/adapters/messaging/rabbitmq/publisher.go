// Package rabbitmq publishes domain events to a durable topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"bankcards/internal/core/services"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher is a services.EventPublisher that can be closed on shutdown
type Publisher interface {
	services.EventPublisher
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing events.
// The event type is used as the routing key.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// FallbackPublisher logs and drops events when RabbitMQ is unavailable
type FallbackPublisher struct{}

// Publish logs the skipped event
func (p *FallbackPublisher) Publish(_ context.Context, event services.Event) error {
	log.Printf("⚠️ Event publish skipped (no broker): type=%s id=%s", event.Type, event.ID)
	return nil
}

// Close is a no-op
func (p *FallbackPublisher) Close() {}

// New returns an EventProducer for amqpURL, or a FallbackPublisher if the URL
// is empty or the broker cannot be reached.
func New(amqpURL, exchange string) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		log.Println("⚠️ RABBITMQ_URL not set, domain events will be logged only")
		return &FallbackPublisher{}
	}

	producer, err := NewEventProducer(amqpURL, exchange)
	if err != nil {
		log.Printf("⚠️ RabbitMQ unavailable, domain events will be logged only: %v", err)
		return &FallbackPublisher{}
	}

	log.Printf("✅ RabbitMQ connected [exchange: %s]", exchange)
	return producer
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials the broker and declares the exchange
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	p := &EventProducer{conn: conn, exchange: exchange}
	if err := p.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// openChannel opens a fresh channel and declares the durable topic exchange
func (p *EventProducer) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}
	p.channel = ch
	return nil
}

// Publish sends the event as JSON, reopening the channel once on failure
func (p *EventProducer) Publish(ctx context.Context, event services.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	if err == nil {
		return nil
	}

	log.Printf("⚠️ Event publish failed, reopening channel: type=%s err=%v", event.Type, err)
	if chErr := p.openChannel(); chErr != nil {
		return errors.Join(err, chErr)
	}
	return p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
}

// Close gracefully closes the channel and connection
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
