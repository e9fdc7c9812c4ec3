package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SecretState models the lifecycle of a signing credential.
//
// ACTIVE secrets sign outbound deliveries and never carry an inactive_at.
// INACTIVE secrets no longer sign but still verify until inactive_at passes,
// which gives receivers a bounded window to pick up a rolled secret.
// DELETED secrets are gone; rows are removed on explicit deletion.
type SecretState string

const (
	SecretStateActive   SecretState = "active"
	SecretStateInactive SecretState = "inactive"
	SecretStateDeleted  SecretState = "deleted"
)

// Secret is the shared shape for webhook endpoint signing secrets and SSO
// verification keys.
type Secret struct {
	KID        string      `json:"kid"`
	Secret     string      `json:"secret"`
	State      SecretState `json:"state"`
	CreatedAt  time.Time   `json:"created_at"`
	InactiveAt *time.Time  `json:"inactive_at,omitempty"`
}

// CanSign reports whether this secret should be used to produce signatures.
func (s Secret) CanSign() bool {
	return s.State == SecretStateActive
}

// CanVerify reports whether a signature produced with this secret is still
// acceptable at the given time. Inactive secrets remain valid through their
// transition window; once inactive_at has passed they verify nothing but are
// retained for audit until explicit deletion.
func (s Secret) CanVerify(now time.Time) bool {
	switch s.State {
	case SecretStateActive:
		return true
	case SecretStateInactive:
		return s.InactiveAt == nil || now.Before(*s.InactiveAt)
	default:
		return false
	}
}

// NewSecret generates a fresh ACTIVE secret.
func NewSecret(now time.Time) (Secret, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Secret{}, fmt.Errorf("generate secret: %w", err)
	}

	return Secret{
		KID:       strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Secret:    "sec_" + hex.EncodeToString(buf),
		State:     SecretStateActive,
		CreatedAt: now.UTC(),
	}, nil
}
