package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/repository"
)

// regenerateWindow is the transition window granted to the previous SSO key
// by the legacy regenerate operation, which takes no explicit duration.
const regenerateWindow = 30 * 24 * time.Hour

// Service manages the lifecycle of webhook endpoint signing secrets and SSO
// verification keys: creation, zero-downtime rotation, deactivation and
// deletion.
type Service struct {
	endpoints repository.EndpointRepositoryInterface
	ssoKeys   repository.SSOKeyRepositoryInterface
	logger    *slog.Logger

	// now is injectable so rotation windows are deterministic in tests.
	now func() time.Time
}

func NewService(endpoints repository.EndpointRepositoryInterface, ssoKeys repository.SSOKeyRepositoryInterface, logger *slog.Logger) *Service {
	return &Service{
		endpoints: endpoints,
		ssoKeys:   ssoKeys,
		logger:    logger.With("component", "secrets"),
		now:       time.Now,
	}
}

// CreateEndpoint registers a new webhook endpoint with a fresh ACTIVE
// signing secret. The first secret has no predecessor to rotate out.
func (s *Service) CreateEndpoint(ctx context.Context, tenantID uuid.UUID, url string, all bool, events []string) (*domain.WebhookEndpoint, error) {
	endpoint := &domain.WebhookEndpoint{
		TenantID: tenantID,
		URL:      url,
		Enabled:  true,
		All:      all,
		Events:   events,
	}

	if err := endpoint.Validate(); err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}

	if err := s.endpoints.Create(ctx, endpoint); err != nil {
		return nil, err
	}

	secret, err := domain.NewSecret(s.now())
	if err != nil {
		return nil, err
	}

	if err := s.endpoints.InsertSecret(ctx, tenantID, endpoint.ID, secret); err != nil {
		return nil, err
	}
	endpoint.SigningSecrets = []domain.Secret{secret}

	s.logger.Info("webhook endpoint created",
		slog.String("endpoint_id", endpoint.ID.String()),
		slog.String("tenant_id", tenantID.String()),
		slog.String("kid", secret.KID),
	)

	return endpoint, nil
}

func (s *Service) UpdateEndpoint(ctx context.Context, tenantID, id uuid.UUID, url string, all bool, events []string) (*domain.WebhookEndpoint, error) {
	endpoint, err := s.endpoints.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	endpoint.URL = url
	endpoint.All = all
	endpoint.Events = events

	if err := endpoint.Validate(); err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}

	if err := s.endpoints.Update(ctx, endpoint); err != nil {
		return nil, err
	}

	return endpoint, nil
}

func (s *Service) EnableEndpoint(ctx context.Context, tenantID, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	return s.setEndpointEnabled(ctx, tenantID, id, true)
}

// DisableEndpoint excludes the endpoint from delivery. Its secrets keep
// their own lifecycle; re-enabling resumes signed deliveries immediately.
func (s *Service) DisableEndpoint(ctx context.Context, tenantID, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	return s.setEndpointEnabled(ctx, tenantID, id, false)
}

func (s *Service) setEndpointEnabled(ctx context.Context, tenantID, id uuid.UUID, enabled bool) (*domain.WebhookEndpoint, error) {
	if err := s.endpoints.SetEnabled(ctx, tenantID, id, enabled); err != nil {
		return nil, err
	}
	return s.endpoints.GetByID(ctx, tenantID, id)
}

func (s *Service) DeleteEndpoint(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.endpoints.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.logger.Info("webhook endpoint deleted",
		slog.String("endpoint_id", id.String()),
		slog.String("tenant_id", tenantID.String()),
	)

	return nil
}

// RollEndpointSecret adds a new ACTIVE secret and schedules the previous
// active one to become INACTIVE at now+inactiveIn. Both verify until the
// transition fires, so receivers that have not picked up the new secret see
// no verification failures.
func (s *Service) RollEndpointSecret(ctx context.Context, tenantID, id uuid.UUID, inactiveIn time.Duration) (*domain.WebhookEndpoint, error) {
	endpoint, err := s.endpoints.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	previous, hasPrevious := endpoint.SigningSecret()

	fresh, err := domain.NewSecret(s.now())
	if err != nil {
		return nil, err
	}

	if err := s.endpoints.InsertSecret(ctx, tenantID, id, fresh); err != nil {
		return nil, fmt.Errorf("insert rolled secret: %w", err)
	}

	if hasPrevious {
		if err := s.endpoints.MarkSecretInactive(ctx, tenantID, id, previous.KID, s.now().Add(inactiveIn)); err != nil {
			return nil, fmt.Errorf("schedule previous secret: %w", err)
		}
	}

	s.logger.Info("webhook endpoint secret rolled",
		slog.String("endpoint_id", id.String()),
		slog.String("tenant_id", tenantID.String()),
		slog.String("kid", fresh.KID),
		slog.Duration("inactive_in", inactiveIn),
	)

	return s.endpoints.GetByID(ctx, tenantID, id)
}

// DeactivateEndpointSecret takes a secret out of rotation immediately.
func (s *Service) DeactivateEndpointSecret(ctx context.Context, tenantID, id uuid.UUID, kid string) (*domain.WebhookEndpoint, error) {
	if err := s.endpoints.MarkSecretInactive(ctx, tenantID, id, kid, s.now()); err != nil {
		return nil, err
	}
	return s.endpoints.GetByID(ctx, tenantID, id)
}

// DeleteEndpointSecret removes a secret outright. Deleting the sole ACTIVE
// secret leaves the endpoint without a signer until a new secret is rolled
// in; the manager does not prevent that.
func (s *Service) DeleteEndpointSecret(ctx context.Context, tenantID, id uuid.UUID, kid string) (*domain.WebhookEndpoint, error) {
	if err := s.endpoints.DeleteSecret(ctx, tenantID, id, kid); err != nil {
		return nil, err
	}
	return s.endpoints.GetByID(ctx, tenantID, id)
}

// CreateSSOKey issues the tenant's first SSO verification key.
func (s *Service) CreateSSOKey(ctx context.Context, tenantID uuid.UUID) ([]domain.Secret, error) {
	fresh, err := domain.NewSecret(s.now())
	if err != nil {
		return nil, err
	}

	if err := s.ssoKeys.Insert(ctx, tenantID, fresh); err != nil {
		return nil, err
	}

	return s.ssoKeys.ListByTenant(ctx, tenantID)
}

// RotateSSOKey rolls the tenant's SSO key the same way endpoint secrets
// roll: new key signs, old key verifies until now+inactiveIn.
func (s *Service) RotateSSOKey(ctx context.Context, tenantID uuid.UUID, inactiveIn time.Duration) ([]domain.Secret, error) {
	keys, err := s.ssoKeys.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	previous, hasPrevious := newestActive(keys)

	fresh, err := domain.NewSecret(s.now())
	if err != nil {
		return nil, err
	}

	if err := s.ssoKeys.Insert(ctx, tenantID, fresh); err != nil {
		return nil, fmt.Errorf("insert rotated sso key: %w", err)
	}

	if hasPrevious {
		if err := s.ssoKeys.MarkInactive(ctx, tenantID, previous.KID, s.now().Add(inactiveIn)); err != nil {
			return nil, fmt.Errorf("schedule previous sso key: %w", err)
		}
	}

	s.logger.Info("sso key rotated",
		slog.String("tenant_id", tenantID.String()),
		slog.String("kid", fresh.KID),
		slog.Duration("inactive_in", inactiveIn),
	)

	return s.ssoKeys.ListByTenant(ctx, tenantID)
}

// RegenerateSSOKey is the legacy rotation: no duration parameter, the
// previous key stays valid through a fixed 30-day window.
func (s *Service) RegenerateSSOKey(ctx context.Context, tenantID uuid.UUID) ([]domain.Secret, error) {
	return s.RotateSSOKey(ctx, tenantID, regenerateWindow)
}

func (s *Service) DeactivateSSOKey(ctx context.Context, tenantID uuid.UUID, kid string) ([]domain.Secret, error) {
	if err := s.ssoKeys.MarkInactive(ctx, tenantID, kid, s.now()); err != nil {
		return nil, err
	}
	return s.ssoKeys.ListByTenant(ctx, tenantID)
}

func (s *Service) DeleteSSOKey(ctx context.Context, tenantID uuid.UUID, kid string) ([]domain.Secret, error) {
	if err := s.ssoKeys.Delete(ctx, tenantID, kid); err != nil {
		return nil, err
	}
	return s.ssoKeys.ListByTenant(ctx, tenantID)
}

func newestActive(secrets []domain.Secret) (domain.Secret, bool) {
	var (
		newest domain.Secret
		found  bool
	)
	for _, s := range secrets {
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
