// Package service publishes domain events to RabbitMQ. Publish errors are
// logged and returned so callers can ignore failures without interrupting
// the main request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/media-vault/internal/queue"
)

// EventPublisher is what handlers depend on; tests substitute a fake.
type EventPublisher interface {
	PublishFileEvent(ctx context.Context, event q.FileEvent) error
}

// AMQPPublisher publishes file events over a fresh RabbitMQ connection per
// call. Messages are marked persistent and the queue is declared durable
// so events survive broker restarts.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher() *AMQPPublisher { return &AMQPPublisher{URL: q.BrokerURL()} }

// PublishFileEvent sends a FileEvent to the file.events queue. It never
// panics; any error is logged and returned so the caller can choose to
// ignore it.
func (p *AMQPPublisher) PublishFileEvent(ctx context.Context, event q.FileEvent) error {
	conn, err := amqp.Dial(p.URL)
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

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.FileEventsQueue, true, false, false, false, nil); err != nil {
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

	if err := ch.PublishWithContext(ctx,
		"",                // default exchange
		q.FileEventsQueue, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
