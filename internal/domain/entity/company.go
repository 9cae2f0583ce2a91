package entity

import "time"

// Company representa una organización/tenant del sistema. Cada empresa es una
// unidad aislada: sus usuarios, datos y configuración se resuelven siempre a
// través del contexto de empresa activa.
type Company struct {
	ID          string
	Name        string
	Code        string // código corto único (ej. "ACME")
	Description string
	Email       string
	Phone       string
	Address     string
	City        string
	State       string
	Country     string
	PostalCode  string
	Currency    string // código ISO 4217 de 3 letras
	Timezone    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // soft delete; nil = vigente
}

// Usable informa si la empresa puede actuar como contexto activo:
// debe existir, estar activa y no estar eliminada.
func (c *Company) Usable() bool {
	return c != nil && c.IsActive && c.DeletedAt == nil
}
