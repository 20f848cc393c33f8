package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names; routing key equals queue name on the default exchange.
const (
	StageTransitionedQueue = "pricing.stage.transitioned"
	SaleConfirmedQueue     = "pricing.sale.confirmed"
	LockExpiredQueue       = "inventory.lock.expired"
)

// Publisher delivers domain events to RabbitMQ.  Each publish dials a
// fresh connection; event volume is low (transitions, confirmations,
// expirations) and a dial per message keeps the publisher stateless and
// immune to stale-connection failures.  Errors are logged and returned
// so callers can choose to ignore them; publishing never interrupts the
// main request flow.
type Publisher struct {
	url string
}

// NewPublisher constructs a Publisher for the given broker URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// StageTransitioned publishes a StageTransitionedEvent.
func (p *Publisher) StageTransitioned(ctx context.Context, ev StageTransitionedEvent) error {
	return p.publish(ctx, StageTransitionedQueue, ev)
}

// SaleConfirmed publishes a SaleConfirmedEvent.
func (p *Publisher) SaleConfirmed(ctx context.Context, ev SaleConfirmedEvent) error {
	return p.publish(ctx, SaleConfirmedQueue, ev)
}

// LockExpired publishes a LockExpiredEvent.
func (p *Publisher) LockExpired(ctx context.Context, ev LockExpiredEvent) error {
	return p.publish(ctx, LockExpiredQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish to %s failed: %v", queueName, err)
		return err
	}
	return nil
}
