package domain

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// WebhookEndpoint is a tenant-configured generic webhook sink. When All is
// set the Events list is ignored and every event kind is delivered.
type WebhookEndpoint struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	URL            string    `json:"url"`
	Enabled        bool      `json:"enabled"`
	All            bool      `json:"all"`
	Events         []string  `json:"events"`
	SigningSecrets []Secret  `json:"signingSecrets"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubscribedTo reports whether the endpoint wants the given event kind.
func (e *WebhookEndpoint) SubscribedTo(kind string) bool {
	if e.All {
		return true
	}
	for _, ev := range e.Events {
		if ev == kind {
			return true
		}
	}
	return false
}

// SigningSecret returns the secret deliveries should be signed with: the
// newest secret still in ACTIVE state. Mid-rotation both secrets verify, but
// only the newest one signs. ok is false when no secret can sign, which
// happens after deleting the sole active secret.
func (e *WebhookEndpoint) SigningSecret() (Secret, bool) {
	var (
		newest Secret
		found  bool
	)
	for _, s := range e.SigningSecrets {
		if !s.CanSign() {
			continue
		}
		if !found || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
			found = true
		}
	}
	return newest, found
}

// Validate verifies the endpoint configuration.
func (e *WebhookEndpoint) Validate() error {
	if e.URL == "" {
		return errors.New("endpoint url cannot be empty")
	}

	u, err := url.Parse(e.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("endpoint url must be absolute")
	}

	if !e.All && len(e.Events) == 0 {
		return errors.New("endpoint must subscribe to all events or name at least one")
	}

	return nil
}
