package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hexagono/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	EventsExchange = "quotes.events"

	EventQuoteCreated       = "quote.created"
	EventQuoteStatusChanged = "quote.status_changed"
)

// QuoteEvent is the body published for every lifecycle event. The event type
// doubles as the routing key.
type QuoteEvent struct {
	Type           string          `json:"type"`
	QuoteID        string          `json:"quote_id"`
	QuoteNumber    string          `json:"quote_number"`
	ServiceType    string          `json:"service_type"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Priority       string          `json:"priority"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewQuoteEvent snapshots q for publishing.
func NewQuoteEvent(eventType string, q *model.Quote, previous model.QuoteStatus) QuoteEvent {
	return QuoteEvent{
		Type:           eventType,
		QuoteID:        q.ID.String(),
		QuoteNumber:    q.QuoteNumber,
		ServiceType:    string(q.ServiceType),
		Status:         string(q.Status),
		PreviousStatus: string(previous),
		Priority:       string(q.Priority),
		EstimatedPrice: q.EstimatedPrice,
		OccurredAt:     time.Now().UTC(),
	}
}

// EventPublisher is implemented by AMQPPublisher and NoopPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev QuoteEvent) error
	Close() error
}

// AMQPPublisher publishes quote events to a durable topic exchange. The
// connection is dialed lazily and re-dialed after the broker drops it.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: EventsExchange}
}

// channel returns an open channel, dialing and declaring the exchange when needed.
// Must be called under p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev QuoteEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		MessageId:    ev.QuoteID + ":" + ev.Type + ":" + ev.Status,
		Body:         body,
	})
	if err != nil {
		log.Error().Err(err).Str("routing_key", ev.Type).Str("quote_number", ev.QuoteNumber).
			Msg("events: publish failed")
		p.closeLocked()
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

// NoopPublisher is used when AMQP_URL is empty.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, QuoteEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }

// NewEventPublisher picks the AMQP publisher when url is set.
func NewEventPublisher(url string) EventPublisher {
	if url == "" {
		log.Info().Msg("events: AMQP_URL not set, domain events disabled")
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url)
}
