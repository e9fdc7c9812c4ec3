package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rakannimer/talk/internal/domain"
)

type EndpointRepository struct {
	pool PgxPool
}

func NewEndpointRepository(pool PgxPool) *EndpointRepository {
	return &EndpointRepository{pool: pool}
}

func (r *EndpointRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	query := `
		SELECT id, tenant_id, url, enabled, all_events, events, created_at, updated_at
		FROM webhook_endpoints
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []domain.WebhookEndpoint
	for rows.Next() {
		var e domain.WebhookEndpoint
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.URL, &e.Enabled,
			&e.All, &e.Events, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		endpoints = append(endpoints, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read endpoints: %w", err)
	}

	if err := r.attachSecrets(ctx, tenantID, endpoints); err != nil {
		return nil, err
	}

	return endpoints, nil
}

func (r *EndpointRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	query := `
		SELECT id, tenant_id, url, enabled, all_events, events, created_at, updated_at
		FROM webhook_endpoints
		WHERE tenant_id = $1 AND id = $2
	`

	var e domain.WebhookEndpoint
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&e.ID, &e.TenantID, &e.URL, &e.Enabled,
		&e.All, &e.Events, &e.CreatedAt, &e.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEndpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get endpoint by id: %w", err)
	}

	endpoints := []domain.WebhookEndpoint{e}
	if err := r.attachSecrets(ctx, tenantID, endpoints); err != nil {
		return nil, err
	}

	return &endpoints[0], nil
}

// attachSecrets loads signing secrets for the given endpoints, oldest first.
func (r *EndpointRepository) attachSecrets(ctx context.Context, tenantID uuid.UUID, endpoints []domain.WebhookEndpoint) error {
	if len(endpoints) == 0 {
		return nil
	}

	query := `
		SELECT endpoint_id, kid, secret, state, created_at, inactive_at
		FROM webhook_endpoint_secrets
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return fmt.Errorf("query endpoint secrets: %w", err)
	}
	defer rows.Close()

	byEndpoint := make(map[uuid.UUID][]domain.Secret)
	for rows.Next() {
		var endpointID uuid.UUID
		var s domain.Secret
		if err := rows.Scan(&endpointID, &s.KID, &s.Secret, &s.State, &s.CreatedAt, &s.InactiveAt); err != nil {
			return fmt.Errorf("scan endpoint secret: %w", err)
		}
		byEndpoint[endpointID] = append(byEndpoint[endpointID], s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read endpoint secrets: %w", err)
	}

	for i := range endpoints {
		endpoints[i].SigningSecrets = byEndpoint[endpoints[i].ID]
	}

	return nil
}

func (r *EndpointRepository) Create(ctx context.Context, endpoint *domain.WebhookEndpoint) error {
	query := `
		INSERT INTO webhook_endpoints (id, tenant_id, url, enabled, all_events, events, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if endpoint.ID == uuid.Nil {
		endpoint.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		endpoint.ID,
		endpoint.TenantID,
		endpoint.URL,
		endpoint.Enabled,
		endpoint.All,
		endpoint.Events,
	).Scan(&endpoint.CreatedAt, &endpoint.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}

	return nil
}

func (r *EndpointRepository) Update(ctx context.Context, endpoint *domain.WebhookEndpoint) error {
	query := `
		UPDATE webhook_endpoints
		SET url = $3, all_events = $4, events = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		endpoint.TenantID,
		endpoint.ID,
		endpoint.URL,
		endpoint.All,
		endpoint.Events,
	).Scan(&endpoint.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEndpointNotFound
	}
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}

	return nil
}

func (r *EndpointRepository) SetEnabled(ctx context.Context, tenantID, id uuid.UUID, enabled bool) error {
	query := `
		UPDATE webhook_endpoints
		SET enabled = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query, tenantID, id, enabled)
	if err != nil {
		return fmt.Errorf("set endpoint enabled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}

	return nil
}

func (r *EndpointRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM webhook_endpoint_secrets WHERE tenant_id = $1 AND endpoint_id = $2`,
		tenantID, id,
	); err != nil {
		return fmt.Errorf("delete endpoint secrets: %w", err)
	}

	result, err := r.pool.Exec(ctx,
		`DELETE FROM webhook_endpoints WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}

	return nil
}

func (r *EndpointRepository) InsertSecret(ctx context.Context, tenantID, endpointID uuid.UUID, secret domain.Secret) error {
	query := `
		INSERT INTO webhook_endpoint_secrets (tenant_id, endpoint_id, kid, secret, state, created_at, inactive_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		tenantID,
		endpointID,
		secret.KID,
		secret.Secret,
		secret.State,
		secret.CreatedAt,
		secret.InactiveAt,
	)
	if err != nil {
		return fmt.Errorf("insert endpoint secret: %w", err)
	}

	return nil
}

// MarkSecretInactive schedules one secret out of rotation. The update is a
// targeted conditional write scoped by tenant, endpoint and kid, so
// concurrent rotations converge without an optimistic-lock loop; a secret
// already out of ACTIVE state is left untouched.
func (r *EndpointRepository) MarkSecretInactive(ctx context.Context, tenantID, endpointID uuid.UUID, kid string, inactiveAt time.Time) error {
	query := `
		UPDATE webhook_endpoint_secrets
		SET state = 'inactive', inactive_at = $4
		WHERE tenant_id = $1 AND endpoint_id = $2 AND kid = $3 AND state = 'active'
	`

	if _, err := r.pool.Exec(ctx, query, tenantID, endpointID, kid, inactiveAt); err != nil {
		return fmt.Errorf("mark secret inactive: %w", err)
	}

	return nil
}

func (r *EndpointRepository) DeleteSecret(ctx context.Context, tenantID, endpointID uuid.UUID, kid string) error {
	query := `
		DELETE FROM webhook_endpoint_secrets
		WHERE tenant_id = $1 AND endpoint_id = $2 AND kid = $3
	`

	result, err := r.pool.Exec(ctx, query, tenantID, endpointID, kid)
	if err != nil {
		return fmt.Errorf("delete endpoint secret: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSecretNotFound
	}

	return nil
}
