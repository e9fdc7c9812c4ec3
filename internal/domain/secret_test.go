package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecret(t *testing.T) {
	now := time.Now()

	s, err := NewSecret(now)
	require.NoError(t, err)

	assert.Len(t, s.KID, 8)
	assert.True(t, len(s.Secret) > len("sec_"))
	assert.Contains(t, s.Secret, "sec_")
	assert.Equal(t, SecretStateActive, s.State)
	assert.Nil(t, s.InactiveAt)
	assert.True(t, s.CanSign())
	assert.True(t, s.CanVerify(now))

	// Two secrets never collide.
	other, err := NewSecret(now)
	require.NoError(t, err)
	assert.NotEqual(t, s.Secret, other.Secret)
	assert.NotEqual(t, s.KID, other.KID)
}

func TestSecretCanVerify(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		secret Secret
		want   bool
	}{
		{
			name:   "active always verifies",
			secret: Secret{State: SecretStateActive},
			want:   true,
		},
		{
			name:   "inactive inside transition window",
			secret: Secret{State: SecretStateInactive, InactiveAt: &future},
			want:   true,
		},
		{
			name:   "inactive past transition window",
			secret: Secret{State: SecretStateInactive, InactiveAt: &past},
			want:   false,
		},
		{
			name:   "inactive exactly at transition",
			secret: Secret{State: SecretStateInactive, InactiveAt: &now},
			want:   false,
		},
		{
			name:   "inactive without deadline",
			secret: Secret{State: SecretStateInactive},
			want:   true,
		},
		{
			name:   "deleted never verifies",
			secret: Secret{State: SecretStateDeleted},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.secret.CanVerify(now))
		})
	}
}

func TestSecretCanSign(t *testing.T) {
	future := time.Now().Add(time.Hour)

	assert.True(t, Secret{State: SecretStateActive}.CanSign())
	assert.False(t, Secret{State: SecretStateInactive, InactiveAt: &future}.CanSign())
	assert.False(t, Secret{State: SecretStateDeleted}.CanSign())
}
