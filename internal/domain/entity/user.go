package entity

import "time"

// Roles válidos para User.
const (
	RoleSuperAdmin = "superadmin" // operador de la plataforma, sin restricción de empresa
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
)

// User representa un usuario del back-office (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // superadmin, admin, operator
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identifica a quien ejecuta una operación mutante. Se pasa explícitamente a cada caso de uso.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
	IP        string
	UserAgent string
}

// IsSuperAdmin informa si el actor puede operar sobre cualquier empresa.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}
