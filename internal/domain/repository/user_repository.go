package repository

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// ListByCompany lista los usuarios con membresía en la empresa (join
	// contra user_companies), paginado.
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
}
