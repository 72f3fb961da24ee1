package repository

import (
	"context"
	"time"
)

// RevokedTokenRepository guarda los jti de tokens cerrados con logout hasta su expiración.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
