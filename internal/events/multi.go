package events

import (
	"context"
	"errors"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

// Multi fans every event out to all notifiers and joins their errors.
type Multi []service.Notifier

var _ service.Notifier = Multi(nil)

func (m Multi) each(fn func(service.Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PrincipalRegistered(ctx context.Context, p models.Principal) error {
	return m.each(func(n service.Notifier) error { return n.PrincipalRegistered(ctx, p) })
}

func (m Multi) LoggedIn(ctx context.Context, p models.Principal) error {
	return m.each(func(n service.Notifier) error { return n.LoggedIn(ctx, p) })
}

func (m Multi) PasswordResetRequested(ctx context.Context, notice service.PasswordResetNotice) error {
	return m.each(func(n service.Notifier) error { return n.PasswordResetRequested(ctx, notice) })
}

func (m Multi) PasswordChanged(ctx context.Context, p models.Principal) error {
	return m.each(func(n service.Notifier) error { return n.PasswordChanged(ctx, p) })
}
