package events

import (
	"time"

	"github.com/Skotchmaster/bookstore/internal/models"
)

const (
	TypeRegistered             = "principal_registered"
	TypeLoggedIn               = "principal_logged_in"
	TypePasswordResetRequested = "password_reset_requested"
	TypePasswordChanged        = "password_changed"
)

// Event is the JSON body published for every auth lifecycle change. It never
// carries passwords, tokens or reset links.
type Event struct {
	Type        string      `json:"type"`
	PrincipalID uint        `json:"principal_id,omitempty"`
	Kind        models.Kind `json:"kind"`
	Email       string      `json:"email"`
	Role        string      `json:"role,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func principalEvent(typ string, p models.Principal) Event {
	return Event{
		Type:        typ,
		PrincipalID: p.PrincipalID(),
		Kind:        p.PrincipalKind(),
		Email:       p.PrincipalEmail(),
		Role:        p.PrincipalRole(),
		OccurredAt:  time.Now().UTC(),
	}
}
