package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Asegura que RoleRepo implementa repository.RoleRepository.
var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo adaptador de lectura del catálogo de roles y permisos. El catálogo
// se siembra con cmd/seed; la aplicación nunca lo muta.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador de roles. Pasar pool o tx (Querier).
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

// GetByID obtiene un rol por ID con sus permisos.
func (r *RoleRepo) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	return r.getBy(ctx, `ro.id = $1`, id)
}

// GetByName obtiene un rol por nombre con sus permisos.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	return r.getBy(ctx, `ro.name = $1`, name)
}

func (r *RoleRepo) getBy(ctx context.Context, cond string, arg any) (*entity.Role, error) {
	query := `
		SELECT ro.id, ro.name, ro.guard_name, ro.created_at, ro.updated_at,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		  FROM roles ro
		  LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		  LEFT JOIN permissions p ON p.id = rp.permission_id
		 WHERE ` + cond + `
		 GROUP BY ro.id, ro.name, ro.guard_name, ro.created_at, ro.updated_at`
	var role entity.Role
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&role.ID, &role.Name, &role.GuardName, &role.CreatedAt, &role.UpdatedAt, &role.Permissions,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// ListWithPermissions devuelve todos los roles con su conjunto de permisos
// cargado, en una sola consulta agregada.
func (r *RoleRepo) ListWithPermissions(ctx context.Context) ([]*entity.Role, error) {
	query := `
		SELECT ro.id, ro.name, ro.guard_name, ro.created_at, ro.updated_at,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		  FROM roles ro
		  LEFT JOIN role_permissions rp ON rp.role_id = ro.id
		  LEFT JOIN permissions p ON p.id = rp.permission_id
		 GROUP BY ro.id, ro.name, ro.guard_name, ro.created_at, ro.updated_at
		 ORDER BY ro.name ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var list []*entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.GuardName, &role.CreatedAt, &role.UpdatedAt, &role.Permissions); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		list = append(list, &role)
	}
	return list, rows.Err()
}
