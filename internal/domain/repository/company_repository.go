package repository

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByCode(ctx context.Context, code string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	// SoftDelete marca deleted_at y desactiva la empresa.
	SoftDelete(ctx context.Context, id string) error
	// Delete elimina la fila. El caso de uso debe verificar antes que no
	// existan membresías (invariante: no hard-delete con miembros activos).
	Delete(ctx context.Context, id string) error
}
