package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
)

// SSOKeyRepository stores the tenant's SSO verification keys. Keys share the
// secret lifecycle of webhook signing secrets.
type SSOKeyRepository struct {
	pool PgxPool
}

func NewSSOKeyRepository(pool PgxPool) *SSOKeyRepository {
	return &SSOKeyRepository{pool: pool}
}

func (r *SSOKeyRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Secret, error) {
	query := `
		SELECT kid, secret, state, created_at, inactive_at
		FROM sso_signing_keys
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query sso keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.Secret
	for rows.Next() {
		var s domain.Secret
		if err := rows.Scan(&s.KID, &s.Secret, &s.State, &s.CreatedAt, &s.InactiveAt); err != nil {
			return nil, fmt.Errorf("scan sso key: %w", err)
		}
		keys = append(keys, s)
	}

	return keys, rows.Err()
}

func (r *SSOKeyRepository) Insert(ctx context.Context, tenantID uuid.UUID, secret domain.Secret) error {
	query := `
		INSERT INTO sso_signing_keys (tenant_id, kid, secret, state, created_at, inactive_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		tenantID,
		secret.KID,
		secret.Secret,
		secret.State,
		secret.CreatedAt,
		secret.InactiveAt,
	)
	if err != nil {
		return fmt.Errorf("insert sso key: %w", err)
	}

	return nil
}

// MarkInactive is the same targeted conditional write used for endpoint
// secrets: only a key still ACTIVE is scheduled out.
func (r *SSOKeyRepository) MarkInactive(ctx context.Context, tenantID uuid.UUID, kid string, inactiveAt time.Time) error {
	query := `
		UPDATE sso_signing_keys
		SET state = 'inactive', inactive_at = $3
		WHERE tenant_id = $1 AND kid = $2 AND state = 'active'
	`

	if _, err := r.pool.Exec(ctx, query, tenantID, kid, inactiveAt); err != nil {
		return fmt.Errorf("mark sso key inactive: %w", err)
	}

	return nil
}

func (r *SSOKeyRepository) Delete(ctx context.Context, tenantID uuid.UUID, kid string) error {
	query := `
		DELETE FROM sso_signing_keys
		WHERE tenant_id = $1 AND kid = $2
	`

	result, err := r.pool.Exec(ctx, query, tenantID, kid)
	if err != nil {
		return fmt.Errorf("delete sso key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSSOKeyNotFound
	}

	return nil
}
