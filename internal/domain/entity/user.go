package entity

import "time"

// User representa un usuario del sistema. El usuario es independiente del
// tenant: puede pertenecer a cero o más empresas vía Membership, y su rol
// efectivo se evalúa siempre dentro de una membresía concreta.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
