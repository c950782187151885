package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

const DefaultTopic = "user_events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes auth events to a topic, keyed by principal so the
// events of one account stay ordered.
type KafkaNotifier struct {
	w messageWriter
}

var _ service.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

func (n *KafkaNotifier) publish(ctx context.Context, key string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	if err := n.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.Type, err)
	}
	return nil
}

func principalKey(kind models.Kind, id uint) string {
	return string(kind) + ":" + strconv.FormatUint(uint64(id), 10)
}

func (n *KafkaNotifier) PrincipalRegistered(ctx context.Context, p models.Principal) error {
	return n.publish(ctx, principalKey(p.PrincipalKind(), p.PrincipalID()), principalEvent(TypeRegistered, p))
}

func (n *KafkaNotifier) LoggedIn(ctx context.Context, p models.Principal) error {
	return n.publish(ctx, principalKey(p.PrincipalKind(), p.PrincipalID()), principalEvent(TypeLoggedIn, p))
}

func (n *KafkaNotifier) PasswordResetRequested(ctx context.Context, notice service.PasswordResetNotice) error {
	exp := notice.ExpiresAt
	return n.publish(ctx, string(notice.Kind)+":"+notice.Email, Event{
		Type:       TypePasswordResetRequested,
		Kind:       notice.Kind,
		Email:      notice.Email,
		ExpiresAt:  &exp,
		OccurredAt: time.Now().UTC(),
	})
}

func (n *KafkaNotifier) PasswordChanged(ctx context.Context, p models.Principal) error {
	return n.publish(ctx, principalKey(p.PrincipalKind(), p.PrincipalID()), principalEvent(TypePasswordChanged, p))
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}
