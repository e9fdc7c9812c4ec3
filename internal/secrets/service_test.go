package secrets

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakannimer/talk/internal/domain"
)

type memEndpointRepo struct {
	endpoints map[uuid.UUID]*domain.WebhookEndpoint
}

func newMemEndpointRepo() *memEndpointRepo {
	return &memEndpointRepo{endpoints: make(map[uuid.UUID]*domain.WebhookEndpoint)}
}

func (r *memEndpointRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	var out []domain.WebhookEndpoint
	for _, e := range r.endpoints {
		if e.TenantID == tenantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memEndpointRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	e, ok := r.endpoints[id]
	if !ok || e.TenantID != tenantID {
		return nil, domain.ErrEndpointNotFound
	}
	clone := *e
	clone.SigningSecrets = append([]domain.Secret(nil), e.SigningSecrets...)
	return &clone, nil
}

func (r *memEndpointRepo) Create(_ context.Context, endpoint *domain.WebhookEndpoint) error {
	endpoint.ID = uuid.New()
	clone := *endpoint
	r.endpoints[endpoint.ID] = &clone
	return nil
}

func (r *memEndpointRepo) Update(_ context.Context, endpoint *domain.WebhookEndpoint) error {
	stored, ok := r.endpoints[endpoint.ID]
	if !ok {
		return domain.ErrEndpointNotFound
	}
	stored.URL = endpoint.URL
	stored.All = endpoint.All
	stored.Events = endpoint.Events
	return nil
}

func (r *memEndpointRepo) SetEnabled(_ context.Context, tenantID, id uuid.UUID, enabled bool) error {
	e, ok := r.endpoints[id]
	if !ok || e.TenantID != tenantID {
		return domain.ErrEndpointNotFound
	}
	e.Enabled = enabled
	return nil
}

func (r *memEndpointRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	e, ok := r.endpoints[id]
	if !ok || e.TenantID != tenantID {
		return domain.ErrEndpointNotFound
	}
	delete(r.endpoints, id)
	return nil
}

func (r *memEndpointRepo) InsertSecret(_ context.Context, tenantID, endpointID uuid.UUID, secret domain.Secret) error {
	e, ok := r.endpoints[endpointID]
	if !ok || e.TenantID != tenantID {
		return domain.ErrEndpointNotFound
	}
	e.SigningSecrets = append(e.SigningSecrets, secret)
	return nil
}

func (r *memEndpointRepo) MarkSecretInactive(_ context.Context, tenantID, endpointID uuid.UUID, kid string, inactiveAt time.Time) error {
	e, ok := r.endpoints[endpointID]
	if !ok || e.TenantID != tenantID {
		return domain.ErrEndpointNotFound
	}
	for i := range e.SigningSecrets {
		s := &e.SigningSecrets[i]
		if s.KID == kid && s.State == domain.SecretStateActive {
			at := inactiveAt
			s.State = domain.SecretStateInactive
			s.InactiveAt = &at
			return nil
		}
	}
	return domain.ErrSecretNotFound
}

func (r *memEndpointRepo) DeleteSecret(_ context.Context, tenantID, endpointID uuid.UUID, kid string) error {
	e, ok := r.endpoints[endpointID]
	if !ok || e.TenantID != tenantID {
		return domain.ErrEndpointNotFound
	}
	for i := range e.SigningSecrets {
		if e.SigningSecrets[i].KID == kid {
			e.SigningSecrets = append(e.SigningSecrets[:i], e.SigningSecrets[i+1:]...)
			return nil
		}
	}
	return domain.ErrSecretNotFound
}

type memSSOKeyRepo struct {
	keys map[uuid.UUID][]domain.Secret
}

func newMemSSOKeyRepo() *memSSOKeyRepo {
	return &memSSOKeyRepo{keys: make(map[uuid.UUID][]domain.Secret)}
}

func (r *memSSOKeyRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]domain.Secret, error) {
	return append([]domain.Secret(nil), r.keys[tenantID]...), nil
}

func (r *memSSOKeyRepo) Insert(_ context.Context, tenantID uuid.UUID, secret domain.Secret) error {
	r.keys[tenantID] = append(r.keys[tenantID], secret)
	return nil
}

func (r *memSSOKeyRepo) MarkInactive(_ context.Context, tenantID uuid.UUID, kid string, inactiveAt time.Time) error {
	keys := r.keys[tenantID]
	for i := range keys {
		if keys[i].KID == kid && keys[i].State == domain.SecretStateActive {
			at := inactiveAt
			keys[i].State = domain.SecretStateInactive
			keys[i].InactiveAt = &at
			return nil
		}
	}
	return domain.ErrSSOKeyNotFound
}

func (r *memSSOKeyRepo) Delete(_ context.Context, tenantID uuid.UUID, kid string) error {
	keys := r.keys[tenantID]
	for i := range keys {
		if keys[i].KID == kid {
			r.keys[tenantID] = append(keys[:i], keys[i+1:]...)
			return nil
		}
	}
	return domain.ErrSSOKeyNotFound
}

func newTestService(t *testing.T, now time.Time) (*Service, *memEndpointRepo, *memSSOKeyRepo) {
	t.Helper()
	endpoints := newMemEndpointRepo()
	ssoKeys := newMemSSOKeyRepo()
	svc := NewService(endpoints, ssoKeys, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return now }
	return svc, endpoints, ssoKeys
}

func TestCreateEndpoint(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	t.Run("creates endpoint with an active signing secret", func(t *testing.T) {
		endpoint, err := svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", true, nil)
		require.NoError(t, err)

		assert.True(t, endpoint.Enabled)
		require.Len(t, endpoint.SigningSecrets, 1)

		secret, ok := endpoint.SigningSecret()
		require.True(t, ok)
		assert.Equal(t, domain.SecretStateActive, secret.State)
		assert.Nil(t, secret.InactiveAt)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		_, err := svc.CreateEndpoint(context.Background(), tenantID, "not-a-url", true, nil)
		require.Error(t, err)

		_, err = svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", false, nil)
		require.Error(t, err)
	})
}

func TestRollEndpointSecret(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	endpoint, err := svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", true, nil)
	require.NoError(t, err)
	first, ok := endpoint.SigningSecret()
	require.True(t, ok)

	rolled, err := svc.RollEndpointSecret(context.Background(), tenantID, endpoint.ID, time.Hour)
	require.NoError(t, err)
	require.Len(t, rolled.SigningSecrets, 2)

	var previous, fresh *domain.Secret
	for i := range rolled.SigningSecrets {
		s := &rolled.SigningSecrets[i]
		if s.KID == first.KID {
			previous = s
		} else {
			fresh = s
		}
	}
	require.NotNil(t, previous)
	require.NotNil(t, fresh)

	assert.Equal(t, domain.SecretStateInactive, previous.State)
	require.NotNil(t, previous.InactiveAt)
	assert.Equal(t, now.Add(time.Hour), *previous.InactiveAt)

	assert.Equal(t, domain.SecretStateActive, fresh.State)
	assert.Nil(t, fresh.InactiveAt)

	// Old key still verifies during the transition window, not after.
	assert.True(t, previous.CanVerify(now.Add(30*time.Minute)))
	assert.False(t, previous.CanVerify(now.Add(2*time.Hour)))

	// Only the fresh secret signs.
	signer, ok := rolled.SigningSecret()
	require.True(t, ok)
	assert.Equal(t, fresh.KID, signer.KID)
}

func TestDeactivateEndpointSecret(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	endpoint, err := svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", true, nil)
	require.NoError(t, err)
	secret, _ := endpoint.SigningSecret()

	updated, err := svc.DeactivateEndpointSecret(context.Background(), tenantID, endpoint.ID, secret.KID)
	require.NoError(t, err)

	// Deactivated at now: no signer, and verification fails from now on.
	_, ok := updated.SigningSecret()
	assert.False(t, ok)
	assert.False(t, updated.SigningSecrets[0].CanVerify(now))
}

func TestDeleteEndpointSecret(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	endpoint, err := svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", true, nil)
	require.NoError(t, err)
	secret, _ := endpoint.SigningSecret()

	t.Run("deleting the sole active secret leaves no signer", func(t *testing.T) {
		updated, err := svc.DeleteEndpointSecret(context.Background(), tenantID, endpoint.ID, secret.KID)
		require.NoError(t, err)
		assert.Empty(t, updated.SigningSecrets)

		_, ok := updated.SigningSecret()
		assert.False(t, ok)
	})

	t.Run("unknown kid", func(t *testing.T) {
		_, err := svc.DeleteEndpointSecret(context.Background(), tenantID, endpoint.ID, "missing")
		assert.ErrorIs(t, err, domain.ErrSecretNotFound)
	})
}

func TestEnableDisableEndpoint(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	endpoint, err := svc.CreateEndpoint(context.Background(), tenantID, "https://example.com/hooks", true, nil)
	require.NoError(t, err)

	disabled, err := svc.DisableEndpoint(context.Background(), tenantID, endpoint.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	enabled, err := svc.EnableEndpoint(context.Background(), tenantID, endpoint.ID)
	require.NoError(t, err)
	assert.True(t, enabled.Enabled)
}

func TestRotateSSOKey(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	keys, err := svc.CreateSSOKey(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	first := keys[0]

	t.Run("rotate schedules the previous key", func(t *testing.T) {
		rotated, err := svc.RotateSSOKey(context.Background(), tenantID, 2*time.Hour)
		require.NoError(t, err)
		require.Len(t, rotated, 2)

		for _, k := range rotated {
			if k.KID == first.KID {
				assert.Equal(t, domain.SecretStateInactive, k.State)
				require.NotNil(t, k.InactiveAt)
				assert.Equal(t, now.Add(2*time.Hour), *k.InactiveAt)
			} else {
				assert.Equal(t, domain.SecretStateActive, k.State)
				assert.Nil(t, k.InactiveAt)
			}
		}
	})

	t.Run("regenerate uses the 30 day window", func(t *testing.T) {
		before, err := svc.RotateSSOKey(context.Background(), tenantID, time.Hour)
		require.NoError(t, err)
		active, ok := newestActive(before)
		require.True(t, ok)

		regenerated, err := svc.RegenerateSSOKey(context.Background(), tenantID)
		require.NoError(t, err)

		for _, k := range regenerated {
			if k.KID == active.KID {
				require.NotNil(t, k.InactiveAt)
				assert.Equal(t, now.Add(regenerateWindow), *k.InactiveAt)
			}
		}
	})
}

func TestDeactivateAndDeleteSSOKey(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)
	tenantID := uuid.New()

	keys, err := svc.CreateSSOKey(context.Background(), tenantID)
	require.NoError(t, err)
	kid := keys[0].KID

	deactivated, err := svc.DeactivateSSOKey(context.Background(), tenantID, kid)
	require.NoError(t, err)
	require.Len(t, deactivated, 1)
	assert.Equal(t, domain.SecretStateInactive, deactivated[0].State)
	assert.False(t, deactivated[0].CanVerify(now))

	deleted, err := svc.DeleteSSOKey(context.Background(), tenantID, kid)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	_, err = svc.DeleteSSOKey(context.Background(), tenantID, kid)
	assert.ErrorIs(t, err, domain.ErrSSOKeyNotFound)
}
