package entity

import "time"

// Roles de sucursal.
const (
	BranchRoleCentral = "central" // centro de distribución
	BranchRoleStore   = "store"   // tienda
)

// Branch representa una bodega o tienda identificada por un código corto (ej. K01, G01).
type Branch struct {
	Code      string
	Name      string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// IsCentral indica si la sucursal es un centro de distribución.
func (b *Branch) IsCentral() bool {
	return b.Role == BranchRoleCentral
}

// ValidBranchRole indica si el rol pertenece al conjunto cerrado de roles.
func ValidBranchRole(role string) bool {
	return role == BranchRoleCentral || role == BranchRoleStore
}
