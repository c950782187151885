package events

import (
	"context"
	"log/slog"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

// LogNotifier writes events to the request logger. It stands in for email
// delivery when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ service.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) logger(ctx context.Context) *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logging.FromContext(ctx)
}

func (n *LogNotifier) log(ctx context.Context, e Event) {
	n.logger(ctx).Info("auth_event",
		"type", e.Type,
		"kind", e.Kind,
		"principal_id", e.PrincipalID,
		"email", e.Email,
	)
}

func (n *LogNotifier) PrincipalRegistered(ctx context.Context, p models.Principal) error {
	n.log(ctx, principalEvent(TypeRegistered, p))
	return nil
}

func (n *LogNotifier) LoggedIn(ctx context.Context, p models.Principal) error {
	n.log(ctx, principalEvent(TypeLoggedIn, p))
	return nil
}

func (n *LogNotifier) PasswordResetRequested(ctx context.Context, notice service.PasswordResetNotice) error {
	n.logger(ctx).Info("auth_event",
		"type", TypePasswordResetRequested,
		"kind", notice.Kind,
		"email", notice.Email,
		"expires_at", notice.ExpiresAt,
	)
	return nil
}

func (n *LogNotifier) PasswordChanged(ctx context.Context, p models.Principal) error {
	n.log(ctx, principalEvent(TypePasswordChanged, p))
	return nil
}
