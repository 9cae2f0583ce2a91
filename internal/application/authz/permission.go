package authz

// Permission identifica un permiso del sistema. Es un conjunto cerrado: el
// registro valida en el arranque que cada constante exista en el colaborador
// RBAC, de modo que un nombre mal escrito falla al iniciar y no en producción.
type Permission string

// Permisos de gestión de empresas y usuarios.
const (
	PermViewCompanies   Permission = "view-companies"
	PermCreateCompanies Permission = "create-companies"
	PermEditCompanies   Permission = "edit-companies"
	PermDeleteCompanies Permission = "delete-companies"

	PermViewUsers   Permission = "view-users"
	PermCreateUsers Permission = "create-users"
	PermEditUsers   Permission = "edit-users"
	PermDeleteUsers Permission = "delete-users"

	PermViewRoles Permission = "view-roles"

	PermViewActivityLogs Permission = "view-activity-logs"
)

// All enumera los permisos que la aplicación usa. El registro exige que todos
// estén presentes en la tabla permissions.
func All() []Permission {
	return []Permission{
		PermViewCompanies, PermCreateCompanies, PermEditCompanies, PermDeleteCompanies,
		PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers,
		PermViewRoles,
		PermViewActivityLogs,
	}
}
