package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
)

// EntityRepository serves the batched-by-id lookups the dispatch pipeline
// needs. Missing ids are simply absent from the returned map, never an
// error; deduplication of repeated ids happens in the loaders.
type EntityRepository struct {
	pool PgxPool
}

func NewEntityRepository(pool PgxPool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

func (r *EntityRepository) GetComments(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Comment, error) {
	query := `
		SELECT id, tenant_id, story_id, author_id, status, revisions, created_at
		FROM comments
		WHERE tenant_id = $1 AND id = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*domain.Comment, len(ids))
	for rows.Next() {
		var c domain.Comment
		err := rows.Scan(
			&c.ID, &c.TenantID, &c.StoryID, &c.AuthorID,
			&c.Status, &c.Revisions, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out[c.ID] = &c
	}

	return out, rows.Err()
}

func (r *EntityRepository) GetStories(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Story, error) {
	query := `
		SELECT id, tenant_id, url, metadata
		FROM stories
		WHERE tenant_id = $1 AND id = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*domain.Story, len(ids))
	for rows.Next() {
		var s domain.Story
		if err := rows.Scan(&s.ID, &s.TenantID, &s.URL, &s.Metadata); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		out[s.ID] = &s
	}

	return out, rows.Err()
}

func (r *EntityRepository) GetUsers(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	query := `
		SELECT id, tenant_id, username, email
		FROM users
		WHERE tenant_id = $1 AND id = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*domain.User, len(ids))
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = &u
	}

	return out, rows.Err()
}
