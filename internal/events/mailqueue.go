package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

const DefaultResetQueue = "password_reset_notifications"

// ResetMail is what the mailer consumes from the reset queue.
type ResetMail struct {
	Email     string      `json:"email"`
	Kind      models.Kind `json:"kind"`
	Link      string      `json:"link"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// MailQueue hands password reset links to the mailer over RabbitMQ. The
// other lifecycle events are not mailed.
type MailQueue struct {
	mu    sync.Mutex
	ch    publisher
	queue string
	close func() error
}

var _ service.Notifier = (*MailQueue)(nil)

func NewMailQueue(url, queue string) (*MailQueue, error) {
	if queue == "" {
		queue = DefaultResetQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	return &MailQueue{
		ch:    ch,
		queue: queue,
		close: func() error {
			_ = ch.Close()
			return conn.Close()
		},
	}, nil
}

func (q *MailQueue) PasswordResetRequested(ctx context.Context, n service.PasswordResetNotice) error {
	body, err := json.Marshal(ResetMail{
		Email:     n.Email,
		Kind:      n.Kind,
		Link:      n.Link,
		ExpiresAt: n.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal reset mail failed: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

func (q *MailQueue) PrincipalRegistered(context.Context, models.Principal) error { return nil }
func (q *MailQueue) LoggedIn(context.Context, models.Principal) error            { return nil }
func (q *MailQueue) PasswordChanged(context.Context, models.Principal) error     { return nil }

func (q *MailQueue) Close() error {
	if q.close == nil {
		return nil
	}
	return q.close()
}
