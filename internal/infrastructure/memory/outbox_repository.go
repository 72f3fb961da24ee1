package memory

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var (
	_ repository.OutboxRepository       = (*OutboxRepository)(nil)
	_ repository.RevokedTokenRepository = (*RevokedTokenRepository)(nil)
)

// OutboxRepository eventos pendientes de publicar, en orden de creación.
type OutboxRepository struct {
	s *session
}

func (r *OutboxRepository) Save(_ context.Context, e *entity.OutboxEvent) error {
	return r.s.do(func(st *state) error {
		st.outbox = append(st.outbox, *e)
		return nil
	})
}

func (r *OutboxRepository) FindUnpublished(_ context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	var out []*entity.OutboxEvent
	err := r.s.do(func(st *state) error {
		for _, e := range st.outbox {
			if e.IsPublished() || !e.ShouldRetry(maxRetries) {
				continue
			}
			e := e
			out = append(out, &e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepository) update(id string, fn func(e *entity.OutboxEvent)) error {
	return r.s.do(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				return nil
			}
		}
		return nil
	})
}

func (r *OutboxRepository) MarkPublished(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(e *entity.OutboxEvent) { e.PublishedAt = &at })
}

func (r *OutboxRepository) IncrementRetry(_ context.Context, id string, lastError string) error {
	return r.update(id, func(e *entity.OutboxEvent) {
		e.RetryCount++
		e.LastError = lastError
	})
}

func (r *OutboxRepository) DeletePublishedBefore(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.do(func(st *state) error {
		kept := st.outbox[:0]
		for _, e := range st.outbox {
			if e.PublishedAt != nil && e.PublishedAt.Before(before) {
				n++
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
		return nil
	})
	return n, err
}

// RevokedTokenRepository jti revocados hasta su expiración.
type RevokedTokenRepository struct {
	s *session
}

func (r *RevokedTokenRepository) Revoke(_ context.Context, tokenID, userID string, expiresAt time.Time) error {
	return r.s.do(func(st *state) error {
		st.revoked[tokenID] = revokedToken{userID: userID, expiresAt: expiresAt}
		return nil
	})
}

func (r *RevokedTokenRepository) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	var ok bool
	err := r.s.do(func(st *state) error {
		_, ok = st.revoked[tokenID]
		return nil
	})
	return ok, err
}

func (r *RevokedTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.s.do(func(st *state) error {
		for id, t := range st.revoked {
			if t.expiresAt.Before(now) {
				delete(st.revoked, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
