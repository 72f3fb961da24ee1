package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// Locals keys de la sesión en Fiber.
const (
	LocalSession = "session"
	LocalUserID  = "user_id"
	LocalRole    = "role"
)

// SessionAuthenticator valida un token y devuelve la sesión (lo implementa *auth.AuthUseCase).
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware valida el Bearer Token, descarta sesiones revocadas y deja la sesión
// en c.Locals y en el contexto de usuario. Un usuario desactivado recibe 403.
func AuthMiddleware(authn SessionAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return respondError(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "Authorization header requerido")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return respondError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return respondError(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "token vacío")
		}
		session, err := authn.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return respondError(c, fiber.StatusForbidden, "USER_INACTIVE", "usuario inactivo")
			}
			return respondError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "token inválido, expirado o revocado")
		}
		c.Locals(LocalSession, session)
		c.Locals(LocalUserID, session.UserID)
		c.Locals(LocalRole, session.Role)
		c.SetUserContext(auth.WithSession(c.UserContext(), session))
		return c.Next()
	}
}

// RequireRole deja pasar solo a los roles indicados. Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "sesión requerida")
		}
		if _, ok := allowed[role]; !ok {
			return respondError(c, fiber.StatusForbidden, "FORBIDDEN", "el rol "+role+" no tiene permiso para esta operación")
		}
		return c.Next()
	}
}

// GetSession devuelve la sesión del request, o nil.
func GetSession(c *fiber.Ctx) *auth.Session {
	s, _ := c.Locals(LocalSession).(*auth.Session)
	return s
}

// GetUserID devuelve el UserID de la sesión.
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol de la sesión.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}
