package entity

import "time"

// Nombres de los roles administrativos. "Super Admin" cruza empresas;
// "Company Admin" administra solo dentro de su empresa activa.
const (
	RoleSuperAdmin   = "Super Admin"
	RoleCompanyAdmin = "Company Admin"
)

// Role es un rol global del sistema con su conjunto de permisos asociado.
// Los roles no son filas por empresa: la pertenencia a una empresa la da la
// Membership, y el rol se interpreta dentro de ella.
type Role struct {
	ID          string
	Name        string
	GuardName   string // ámbito del rol (ej. "web")
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdministrative informa si el rol otorga administración de la empresa.
func (r *Role) IsAdministrative() bool {
	return r != nil && (r.Name == RoleSuperAdmin || r.Name == RoleCompanyAdmin)
}
