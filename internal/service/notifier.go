package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type PasswordResetNotice struct {
	Email     string
	Kind      models.Kind
	Link      string
	ExpiresAt time.Time
}

// Notifier receives auth lifecycle events. Failures are logged by the
// services and never fail the request that produced the event.
type Notifier interface {
	PrincipalRegistered(ctx context.Context, p models.Principal) error
	LoggedIn(ctx context.Context, p models.Principal) error
	PasswordResetRequested(ctx context.Context, n PasswordResetNotice) error
	PasswordChanged(ctx context.Context, p models.Principal) error
}

type nopNotifier struct{}

func (nopNotifier) PrincipalRegistered(context.Context, models.Principal) error      { return nil }
func (nopNotifier) LoggedIn(context.Context, models.Principal) error                 { return nil }
func (nopNotifier) PasswordResetRequested(context.Context, PasswordResetNotice) error { return nil }
func (nopNotifier) PasswordChanged(context.Context, models.Principal) error          { return nil }

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func notify(ctx context.Context, event string, send func() error) {
	if err := send(); err != nil {
		logging.FromContext(ctx).Warn("notify_failed", "event", event, "error", err)
	}
}
