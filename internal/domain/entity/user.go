package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"     // opera cualquier sucursal
	RoleBodeguero = "bodeguero" // centro de distribución
	RoleVendedor  = "vendedor"  // tienda
)

// Estados de usuario.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User representa un usuario del sistema, asignado a una sucursal.
// Branch vacío solo se admite para admin.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Branch       string
	Role         string // admin, bodeguero, vendedor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si el rol pertenece al conjunto cerrado de roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBodeguero || role == RoleVendedor
}
