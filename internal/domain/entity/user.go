package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero" // registra movimientos y mantiene el catálogo
	RoleAuditor   = "auditor"   // solo lectura
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// ValidRole indica si role es uno de los roles soportados.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBodeguero, RoleAuditor:
		return true
	}
	return false
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive indica si el usuario puede iniciar sesión.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
