package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.RevokedTokenRepository = (*RevokedTokenRepo)(nil)

// RevokedTokenRepo jti revocados en logout.
type RevokedTokenRepo struct {
	q Querier
}

func NewRevokedTokenRepository(q Querier) *RevokedTokenRepo {
	return &RevokedTokenRepo{q: q}
}

func (r *RevokedTokenRepo) Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (token_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, tokenID, userID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID).Scan(&ok); err != nil {
		return false, fmt.Errorf("is token revoked: %w", err)
	}
	return ok, nil
}

func (r *RevokedTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}
