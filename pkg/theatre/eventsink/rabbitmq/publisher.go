// Package rabbitmq publishes theatre domain events to a RabbitMQ queue.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// DefaultQueue receives events when Config.Queue is empty.
const DefaultQueue = "theatre.events"

// Event types carried in Event.Type.
const (
	EventItemCreated         = "item.created"
	EventItemUpdated         = "item.updated"
	EventItemDeleted         = "item.deleted"
	EventProductionConverted = "production.converted"
)

// Event is the JSON body of every published message.
type Event struct {
	Type       string    `json:"type"`
	ItemID     uuid.UUID `json:"item_id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	// Conversion is set for production.converted; ItemID is then the source page.
	Conversion *theatre.ConversionResult `json:"conversion,omitempty"`
}

type Config struct {
	URL   string
	Queue string
}

// channel is the subset of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher is a theatre.EventSink writing persistent JSON messages to a
// durable queue on the default exchange.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

// Dial connects to the broker and declares the queue
func Dial(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq: url is required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	p := newPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queue, now: time.Now}
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now().UTC()
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

func itemEvent(typ string, item *theatre.Item) Event {
	return Event{
		Type:   typ,
		ItemID: item.ID,
		Kind:   string(item.Kind),
		Title:  item.Title,
		Slug:   item.Slug,
		Status: string(item.Status),
	}
}

func (p *Publisher) ItemCreated(ctx context.Context, item *theatre.Item) error {
	return p.publish(ctx, itemEvent(EventItemCreated, item))
}

func (p *Publisher) ItemUpdated(ctx context.Context, item *theatre.Item) error {
	return p.publish(ctx, itemEvent(EventItemUpdated, item))
}

func (p *Publisher) ItemDeleted(ctx context.Context, id uuid.UUID, kind theatre.Kind) error {
	return p.publish(ctx, Event{Type: EventItemDeleted, ItemID: id, Kind: string(kind)})
}

func (p *Publisher) PageConverted(ctx context.Context, pageID uuid.UUID, result *theatre.ConversionResult) error {
	return p.publish(ctx, Event{
		Type:       EventProductionConverted,
		ItemID:     pageID,
		Kind:       string(theatre.KindPage),
		Conversion: result,
	})
}

var _ theatre.EventSink = (*Publisher)(nil)
