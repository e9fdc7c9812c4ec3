package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is the unit of isolation: all channel and endpoint configuration,
// filtering and delivery state is scoped to one tenant.
type Tenant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`

	// OrganizationURL is the tenant's admin application base URL, used to
	// build moderation links in notifications. Empty falls back to the
	// deployment-wide URL from config.
	OrganizationURL string `json:"organization_url"`

	IsActive  bool          `json:"is_active"`
	Slack     SlackSettings `json:"slack"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SlackSettings holds the tenant's chat-style notification channels. Stored
// as jsonb on the tenants row.
type SlackSettings struct {
	Channels []SlackChannel `json:"channels,omitempty"`
}

type SlackChannel struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Enabled  bool          `json:"enabled"`
	HookURL  string        `json:"hookURL"`
	Triggers SlackTriggers `json:"triggers"`
}

// SlackTriggers are the per-channel subscription rules. AllComments
// short-circuits every other flag.
type SlackTriggers struct {
	AllComments      bool `json:"allComments"`
	ReportedComments bool `json:"reportedComments"`
	PendingComments  bool `json:"pendingComments"`
	FeaturedComments bool `json:"featuredComments"`
}

// Configured reports whether a channel can receive deliveries at all.
// Disabled channels and channels without a hook URL are excluded before any
// trigger evaluation happens.
func (c SlackChannel) Configured() bool {
	return c.Enabled && c.HookURL != ""
}

// HasConfiguredChannels reports whether any channel could produce a delivery.
func (s SlackSettings) HasConfiguredChannels() bool {
	for _, c := range s.Channels {
		if c.Configured() {
			return true
		}
	}
	return false
}

// Validate verifies the tenant is well formed.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.New("tenant name cannot be empty")
	}

	if t.Slug == "" {
		return errors.New("tenant slug cannot be empty")
	}

	if !slugRegex.MatchString(t.Slug) {
		return errors.New("tenant slug must contain only lowercase letters, numbers and hyphens")
	}

	return nil
}
