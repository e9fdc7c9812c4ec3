package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakannimer/talk/internal/domain"
)

func TestSign(t *testing.T) {
	body := []byte(`{"type":"COMMENT_FEATURED"}`)

	signature := Sign("my-secret", body)
	assert.Contains(t, signature, "sha256=")

	// Deterministic for the same inputs, different per secret and body.
	assert.Equal(t, signature, Sign("my-secret", body))
	assert.NotEqual(t, signature, Sign("other-secret", body))
	assert.NotEqual(t, signature, Sign("my-secret", []byte(`{}`)))
}

func TestVerify(t *testing.T) {
	now := time.Now()
	body := []byte(`{"id":"1","type":"COMMENT_FEATURED"}`)

	active := domain.Secret{KID: "new", Secret: "new-secret", State: domain.SecretStateActive, CreatedAt: now}

	tests := []struct {
		name    string
		secrets []domain.Secret
		header  string
		want    bool
	}{
		{
			name:    "active secret verifies",
			secrets: []domain.Secret{active},
			header:  Sign("new-secret", body),
			want:    true,
		},
		{
			name:    "unknown signature fails",
			secrets: []domain.Secret{active},
			header:  Sign("stranger", body),
			want:    false,
		},
		{
			name:    "tampered body fails",
			secrets: []domain.Secret{active},
			header:  Sign("new-secret", []byte(`{"id":"2"}`)),
			want:    false,
		},
		{
			name:    "empty header fails",
			secrets: []domain.Secret{active},
			header:  "",
			want:    false,
		},
		{
			name:    "any entry in a multi-signature header suffices",
			secrets: []domain.Secret{active},
			header:  Sign("stale", body) + ", " + Sign("new-secret", body),
			want:    true,
		},
		{
			name: "deleted secret never verifies",
			secrets: []domain.Secret{
				{KID: "gone", Secret: "gone-secret", State: domain.SecretStateDeleted},
			},
			header: Sign("gone-secret", body),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.secrets, now, body, tt.header))
		})
	}
}

// Rolling a secret keeps the predecessor verifiable until its transition
// fires, then cuts it off.
func TestVerifyRotationWindow(t *testing.T) {
	t0 := time.Now()
	window := 24 * time.Hour
	inactiveAt := t0.Add(window)

	body := []byte(`{"type":"COMMENT_FEATURED"}`)
	secrets := []domain.Secret{
		{KID: "old", Secret: "old-secret", State: domain.SecretStateInactive, CreatedAt: t0.Add(-time.Hour), InactiveAt: &inactiveAt},
		{KID: "new", Secret: "new-secret", State: domain.SecretStateActive, CreatedAt: t0},
	}

	oldSig := Sign("old-secret", body)
	newSig := Sign("new-secret", body)

	// Inside the window both signatures are accepted.
	require.True(t, Verify(secrets, t0.Add(time.Minute), body, oldSig))
	require.True(t, Verify(secrets, t0.Add(window-time.Second), body, oldSig))
	require.True(t, Verify(secrets, t0.Add(time.Minute), body, newSig))

	// At and after the transition only the new secret verifies.
	assert.False(t, Verify(secrets, t0.Add(window), body, oldSig))
	assert.False(t, Verify(secrets, t0.Add(window+time.Hour), body, oldSig))
	assert.True(t, Verify(secrets, t0.Add(window+time.Hour), body, newSig))
}

func TestSignaturesFor(t *testing.T) {
	t0 := time.Now()
	inactiveAt := t0.Add(time.Hour)
	body := []byte(`{"id":"1"}`)

	t.Run("single active secret", func(t *testing.T) {
		secrets := []domain.Secret{
			{KID: "old", Secret: "old-secret", State: domain.SecretStateInactive, CreatedAt: t0.Add(-time.Hour), InactiveAt: &inactiveAt},
			{KID: "new", Secret: "new-secret", State: domain.SecretStateActive, CreatedAt: t0},
		}

		signatures := SignaturesFor(secrets, body)
		require.Len(t, signatures, 1)
		assert.Equal(t, Sign("new-secret", body), signatures[0])
	})

	t.Run("two active secrets sign newest first", func(t *testing.T) {
		secrets := []domain.Secret{
			{KID: "a", Secret: "secret-a", State: domain.SecretStateActive, CreatedAt: t0.Add(-time.Minute)},
			{KID: "b", Secret: "secret-b", State: domain.SecretStateActive, CreatedAt: t0},
		}

		signatures := SignaturesFor(secrets, body)
		require.Len(t, signatures, 2)
		assert.Equal(t, Sign("secret-b", body), signatures[0])
		assert.Equal(t, Sign("secret-a", body), signatures[1])
	})

	t.Run("no signable secret", func(t *testing.T) {
		secrets := []domain.Secret{
			{KID: "gone", Secret: "gone-secret", State: domain.SecretStateDeleted, CreatedAt: t0},
		}

		assert.Empty(t, SignaturesFor(secrets, body))
	})
}
