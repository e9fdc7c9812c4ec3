package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWebhookEndpointSubscribedTo(t *testing.T) {
	tests := []struct {
		name     string
		endpoint WebhookEndpoint
		kind     string
		want     bool
	}{
		{
			name:     "all overrides event list",
			endpoint: WebhookEndpoint{All: true},
			kind:     "COMMENT_FEATURED",
			want:     true,
		},
		{
			name:     "explicit subscription matches",
			endpoint: WebhookEndpoint{Events: []string{"COMMENT_FEATURED"}},
			kind:     "COMMENT_FEATURED",
			want:     true,
		},
		{
			name:     "unsubscribed kind does not match",
			endpoint: WebhookEndpoint{Events: []string{"COMMENT_FEATURED"}},
			kind:     "COMMENT_ENTERED_MODERATION_QUEUE",
			want:     false,
		},
		{
			name:     "empty subscription matches nothing",
			endpoint: WebhookEndpoint{},
			kind:     "COMMENT_FEATURED",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.endpoint.SubscribedTo(tt.kind))
		})
	}
}

func TestWebhookEndpointSigningSecret(t *testing.T) {
	t0 := time.Now()
	inactiveAt := t0.Add(24 * time.Hour)

	t.Run("no secrets", func(t *testing.T) {
		e := WebhookEndpoint{}
		_, ok := e.SigningSecret()
		assert.False(t, ok)
	})

	t.Run("single active secret", func(t *testing.T) {
		e := WebhookEndpoint{SigningSecrets: []Secret{
			{KID: "a", State: SecretStateActive, CreatedAt: t0},
		}}
		s, ok := e.SigningSecret()
		assert.True(t, ok)
		assert.Equal(t, "a", s.KID)
	})

	t.Run("mid rotation picks the newest active", func(t *testing.T) {
		e := WebhookEndpoint{SigningSecrets: []Secret{
			{KID: "old", State: SecretStateInactive, CreatedAt: t0, InactiveAt: &inactiveAt},
			{KID: "new", State: SecretStateActive, CreatedAt: t0.Add(time.Minute)},
		}}
		s, ok := e.SigningSecret()
		assert.True(t, ok)
		assert.Equal(t, "new", s.KID)
	})

	t.Run("only inactive secrets left", func(t *testing.T) {
		e := WebhookEndpoint{SigningSecrets: []Secret{
			{KID: "old", State: SecretStateInactive, CreatedAt: t0, InactiveAt: &inactiveAt},
		}}
		_, ok := e.SigningSecret()
		assert.False(t, ok)
	})
}

func TestWebhookEndpointValidate(t *testing.T) {
	tests := []struct {
		name     string
		endpoint WebhookEndpoint
		wantErr  bool
	}{
		{
			name:     "valid with all",
			endpoint: WebhookEndpoint{URL: "https://example.com/hook", All: true},
		},
		{
			name:     "valid with explicit events",
			endpoint: WebhookEndpoint{URL: "https://example.com/hook", Events: []string{"COMMENT_FEATURED"}},
		},
		{
			name:     "missing url",
			endpoint: WebhookEndpoint{All: true},
			wantErr:  true,
		},
		{
			name:     "relative url",
			endpoint: WebhookEndpoint{URL: "/hook", All: true},
			wantErr:  true,
		},
		{
			name:     "no subscription at all",
			endpoint: WebhookEndpoint{URL: "https://example.com/hook"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.endpoint.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
