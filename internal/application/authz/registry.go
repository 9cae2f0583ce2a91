package authz

import (
	"context"
	"fmt"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Registry es la foto en memoria del colaborador RBAC: roles globales y el
// conjunto de permisos que cada uno otorga. Se construye una sola vez en el
// arranque y después es de solo lectura, así que es seguro compartirlo entre
// requests sin locking.
type Registry struct {
	rolesByID   map[string]*entity.Role
	rolesByName map[string]*entity.Role
	grants      map[string]map[Permission]struct{} // roleID -> set de permisos
}

// LoadRegistry carga todos los roles con sus permisos y valida que el conjunto
// cerrado de Permission exista completo en el RBAC. Un permiso declarado aquí
// pero ausente en la base es un error de despliegue y aborta el arranque.
func LoadRegistry(ctx context.Context, roles repository.RoleRepository) (*Registry, error) {
	list, err := roles.ListWithPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar roles: %w", err)
	}

	r := &Registry{
		rolesByID:   make(map[string]*entity.Role, len(list)),
		rolesByName: make(map[string]*entity.Role, len(list)),
		grants:      make(map[string]map[Permission]struct{}, len(list)),
	}
	known := make(map[Permission]bool)
	for _, role := range list {
		r.rolesByID[role.ID] = role
		r.rolesByName[role.Name] = role
		set := make(map[Permission]struct{}, len(role.Permissions))
		for _, p := range role.Permissions {
			set[Permission(p)] = struct{}{}
			known[Permission(p)] = true
		}
		r.grants[role.ID] = set
	}

	for _, p := range All() {
		if !known[p] {
			return nil, fmt.Errorf("permiso %q no existe en el RBAC (¿seed pendiente?)", p)
		}
	}
	if _, ok := r.rolesByName[entity.RoleSuperAdmin]; !ok {
		return nil, fmt.Errorf("rol %q no existe en el RBAC", entity.RoleSuperAdmin)
	}
	return r, nil
}

// RoleGrants informa si el rol otorga el permiso.
func (r *Registry) RoleGrants(roleID string, perm Permission) bool {
	set, ok := r.grants[roleID]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Role devuelve el rol por ID, o nil si no existe.
func (r *Registry) Role(roleID string) *entity.Role {
	return r.rolesByID[roleID]
}

// RoleByName devuelve el rol por nombre, o nil si no existe.
func (r *Registry) RoleByName(name string) *entity.Role {
	return r.rolesByName[name]
}

// IsSuperAdminRole informa si el roleID corresponde al rol Super Admin.
func (r *Registry) IsSuperAdminRole(roleID string) bool {
	role := r.rolesByID[roleID]
	return role != nil && role.Name == entity.RoleSuperAdmin
}

// AdministrativeRoleIDs devuelve los IDs de los roles administrativos
// (para la guardia de último administrador).
func (r *Registry) AdministrativeRoleIDs() []string {
	var ids []string
	for id, role := range r.rolesByID {
		if role.IsAdministrative() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Roles devuelve todos los roles conocidos (para listados).
func (r *Registry) Roles() []*entity.Role {
	out := make([]*entity.Role, 0, len(r.rolesByID))
	for _, role := range r.rolesByID {
		out = append(out, role)
	}
	return out
}
