package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rakannimer/talk/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TenantRepositoryInterface defines operations for tenant data access
type TenantRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	Create(ctx context.Context, tenant *domain.Tenant) error
	UpdateSlackSettings(ctx context.Context, tenantID uuid.UUID, settings domain.SlackSettings) error
}

// EndpointRepositoryInterface defines operations for webhook endpoint and
// signing secret data access
type EndpointRepositoryInterface interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.WebhookEndpoint, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WebhookEndpoint, error)
	Create(ctx context.Context, endpoint *domain.WebhookEndpoint) error
	Update(ctx context.Context, endpoint *domain.WebhookEndpoint) error
	SetEnabled(ctx context.Context, tenantID, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	InsertSecret(ctx context.Context, tenantID, endpointID uuid.UUID, secret domain.Secret) error
	MarkSecretInactive(ctx context.Context, tenantID, endpointID uuid.UUID, kid string, inactiveAt time.Time) error
	DeleteSecret(ctx context.Context, tenantID, endpointID uuid.UUID, kid string) error
}

// SSOKeyRepositoryInterface defines operations for SSO signing key data
// access
type SSOKeyRepositoryInterface interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Secret, error)
	Insert(ctx context.Context, tenantID uuid.UUID, secret domain.Secret) error
	MarkInactive(ctx context.Context, tenantID uuid.UUID, kid string, inactiveAt time.Time) error
	Delete(ctx context.Context, tenantID uuid.UUID, kid string) error
}
