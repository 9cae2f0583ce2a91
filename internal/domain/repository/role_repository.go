package repository

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// RoleRepository define el puerto de lectura del colaborador RBAC. Los roles y
// permisos se siembran fuera de la aplicación; aquí solo se consultan.
type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	// ListWithPermissions devuelve todos los roles con su conjunto de
	// permisos cargado (para construir el registro cerrado en el arranque).
	ListWithPermissions(ctx context.Context) ([]*entity.Role, error)
}
