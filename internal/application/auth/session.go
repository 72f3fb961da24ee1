package auth

import (
	"context"
	"time"
)

// Session sesión autenticada de un request.
type Session struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string // jti
	ExpiresAt time.Time
}

type sessionKey struct{}

// WithSession devuelve un contexto que transporta la sesión.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extrae la sesión del contexto, o nil si no hay.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
