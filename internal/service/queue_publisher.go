// Package service publishes admin audit events to RabbitMQ.  Publishing is
// best effort: errors are logged and returned so callers can carry on
// without interrupting the request that triggered the event.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/bookletify-api/internal/queue"
)

// AuditPublisher publishes admin audit events.
type AuditPublisher interface {
	PublishAdminAudit(ctx context.Context, ev q.AdminAuditEvent) error
}

// AMQPPublisher publishes to the durable admin.audit queue.  It dials per
// publish; admin actions are rare enough that a long-lived channel is not
// worth the reconnect handling.
type AMQPPublisher struct {
	url string
	// bounds the TCP connect and the AMQP handshake
	dialTimeout time.Duration
}

// defaultDialTimeout keeps an unresponsive broker from holding up the
// admin request that triggered the event.
const defaultDialTimeout = 3 * time.Second

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dialTimeout: defaultDialTimeout}
}

// PublishAdminAudit sends ev as a persistent JSON message.
func (p *AMQPPublisher) PublishAdminAudit(ctx context.Context, ev q.AdminAuditEvent) error {
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
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

	if _, err := ch.QueueDeclare(
		q.AuditQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Action,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		q.AuditQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// LogPublisher writes events to the process log.  It is used when no
// broker is configured so admin actions still leave a trace.
type LogPublisher struct{}

// PublishAdminAudit logs ev and never fails.
func (LogPublisher) PublishAdminAudit(_ context.Context, ev q.AdminAuditEvent) error {
	log.Print("audit: " + q.FormatAuditLine(ev))
	return nil
}
