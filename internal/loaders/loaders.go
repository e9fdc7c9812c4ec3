package loaders

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
)

// FetchFunc resolves a batch of ids, returning a map keyed by id. Missing
// ids are simply absent from the map, never an error.
type FetchFunc[V any] func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]V, error)

// Loader is a per-dispatch-cycle batching cache. Repeated loads of the same
// id within one cycle hit the cache, so a missing entity resolves to the
// same "not found" outcome however many times it is asked for.
type Loader[V any] struct {
	fetch FetchFunc[V]

	mu    sync.Mutex
	cache map[uuid.UUID]V
}

func New[V any](fetch FetchFunc[V]) *Loader[V] {
	return &Loader[V]{
		fetch: fetch,
		cache: make(map[uuid.UUID]V),
	}
}

// Load resolves one id. The zero value (nil for pointer types) signals a
// missing entity.
func (l *Loader[V]) Load(ctx context.Context, id uuid.UUID) (V, error) {
	got, err := l.LoadMany(ctx, []uuid.UUID{id})
	if err != nil {
		var zero V
		return zero, err
	}
	return got[0], nil
}

// LoadMany resolves a batch of ids, preserving order and deduplicating
// repeated ids before hitting storage.
func (l *Loader[V]) LoadMany(ctx context.Context, ids []uuid.UUID) ([]V, error) {
	l.mu.Lock()

	var missing []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := l.cache[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	l.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := l.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		for _, id := range missing {
			// Cache misses too, as the zero value.
			l.cache[id] = fetched[id]
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]V, len(ids))
	for i, id := range ids {
		out[i] = l.cache[id]
	}
	return out, nil
}

// Set bundles the entity loaders one dispatch cycle needs. A fresh Set is
// built per tenant binding; its caches never outlive the request.
type Set struct {
	Comments *Loader[*domain.Comment]
	Stories  *Loader[*domain.Story]
	Users    *Loader[*domain.User]
}

// EntityReader is the batched-lookup contract the repositories satisfy.
type EntityReader interface {
	GetComments(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Comment, error)
	GetStories(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Story, error)
	GetUsers(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
}

// NewSet builds the loaders for one tenant, scoping every lookup to it.
func NewSet(reader EntityReader, tenantID uuid.UUID) *Set {
	return &Set{
		Comments: New(func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Comment, error) {
			return reader.GetComments(ctx, tenantID, ids)
		}),
		Stories: New(func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Story, error) {
			return reader.GetStories(ctx, tenantID, ids)
		}),
		Users: New(func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
			return reader.GetUsers(ctx, tenantID, ids)
		}),
	}
}
