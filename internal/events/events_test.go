package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakePublisher struct {
	key string
	msg amqp.Publishing
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.key = key
	p.msg = msg
	return nil
}

var testUser = &models.User{ID: 12, FirstName: "Ann", Email: "ann@example.com"}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := &KafkaNotifier{w: w}
	ctx := context.Background()

	require.NoError(t, n.PrincipalRegistered(ctx, testUser))
	require.NoError(t, n.PasswordResetRequested(ctx, service.PasswordResetNotice{
		Email:     "ann@example.com",
		Kind:      models.KindUser,
		Link:      "https://shop.example.com/reset?token=abc",
		ExpiresAt: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
	}))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "User:12", string(w.msgs[0].Key))
	var e Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &e))
	assert.Equal(t, TypeRegistered, e.Type)
	assert.Equal(t, uint(12), e.PrincipalID)
	assert.Equal(t, models.RoleUser, e.Role)

	assert.NotContains(t, string(w.msgs[1].Value), "token=abc")

	w.err = errors.New("leader not available")
	err := n.LoggedIn(ctx, testUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TypeLoggedIn)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestMailQueue(t *testing.T) {
	p := &fakePublisher{}
	q := &MailQueue{ch: p, queue: DefaultResetQueue}
	exp := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)

	require.NoError(t, q.PasswordResetRequested(context.Background(), service.PasswordResetNotice{
		Email:     "root@example.com",
		Kind:      models.KindAdmin,
		Link:      "https://shop.example.com/reset?token=abc",
		ExpiresAt: exp,
	}))

	assert.Equal(t, DefaultResetQueue, p.key)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	assert.Equal(t, "application/json", p.msg.ContentType)

	var mail ResetMail
	require.NoError(t, json.Unmarshal(p.msg.Body, &mail))
	assert.Equal(t, "root@example.com", mail.Email)
	assert.Equal(t, models.KindAdmin, mail.Kind)
	assert.Equal(t, "https://shop.example.com/reset?token=abc", mail.Link)
	assert.True(t, exp.Equal(mail.ExpiresAt))

	require.NoError(t, q.PrincipalRegistered(context.Background(), testUser))
	require.NoError(t, q.Close())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: logging.NewWithWriter(&buf, "info")}

	require.NoError(t, n.PasswordChanged(context.Background(), testUser))
	require.NoError(t, n.PasswordResetRequested(context.Background(), service.PasswordResetNotice{
		Email: "ann@example.com",
		Kind:  models.KindUser,
		Link:  "https://shop.example.com/reset?token=secret-token",
	}))

	out := buf.String()
	assert.Contains(t, out, `"type":"password_changed"`)
	assert.Contains(t, out, `"type":"password_reset_requested"`)
	assert.NotContains(t, out, "secret-token")
}

type countingNotifier struct {
	LogNotifier
	calls int
	err   error
}

func (c *countingNotifier) LoggedIn(context.Context, models.Principal) error {
	c.calls++
	return c.err
}

func TestMulti(t *testing.T) {
	failing := &countingNotifier{LogNotifier: LogNotifier{Logger: logging.Discard()}, err: errors.New("down")}
	ok := &countingNotifier{LogNotifier: LogNotifier{Logger: logging.Discard()}}

	m := Multi{failing, ok}
	err := m.LoggedIn(context.Background(), testUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, m.PrincipalRegistered(context.Background(), testUser))
}
