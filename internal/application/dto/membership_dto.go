package dto

import "time"

// AssignCompanyRequest entrada para asignar un usuario a una empresa con rol.
type AssignCompanyRequest struct {
	CompanyID        string `json:"company_id" validate:"required,uuid"`
	Role             string `json:"role" validate:"required"`
	IsDefaultCompany bool   `json:"is_default_company"`
}

// UpdateRoleRequest entrada para cambiar el rol de un usuario en una empresa.
type UpdateRoleRequest struct {
	CompanyID string `json:"company_id" validate:"required,uuid"`
	Role      string `json:"role" validate:"required"`
}

// CompanyIDRequest entrada para operaciones que solo requieren la empresa
// (quitar de empresa, fijar empresa por defecto, cambiar de contexto).
type CompanyIDRequest struct {
	CompanyID string `json:"company_id" validate:"required,uuid"`
}

// AssignmentResponse resultado de una asignación.
type AssignmentResponse struct {
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	CompanyID        string `json:"company_id"`
	CompanyName      string `json:"company_name"`
	Role             string `json:"role"`
	IsDefaultCompany bool   `json:"is_default_company"`
}

// RoleChangeResponse resultado de un cambio de rol (incluye el antes/después).
type RoleChangeResponse struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	OldRole     string `json:"old_role"`
	NewRole     string `json:"new_role"`
}

// CompanyAssignmentResponse una membresía del usuario con empresa y rol.
type CompanyAssignmentResponse struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	CompanyCode string    `json:"company_code,omitempty"`
	RoleID      string    `json:"role_id"`
	RoleName    string    `json:"role_name"`
	IsDefault   bool      `json:"is_default"`
	AssignedAt  time.Time `json:"assigned_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleResponse rol disponible en el sistema.
type RoleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRolesStatistics agregados sobre las asignaciones de un usuario.
type UserRolesStatistics struct {
	TotalCompanies int                        `json:"total_companies"`
	DefaultCompany *CompanyAssignmentResponse `json:"default_company,omitempty"`
	AdminCompanies int                        `json:"admin_companies"`
}

// UserRolesResponse asignaciones de un usuario en las empresas accesibles.
type UserRolesResponse struct {
	User               UserResponse                `json:"user"`
	CompanyAssignments []CompanyAssignmentResponse `json:"company_assignments"`
	AvailableRoles     []RoleResponse              `json:"available_roles"`
	Statistics         UserRolesStatistics         `json:"statistics"`
}
