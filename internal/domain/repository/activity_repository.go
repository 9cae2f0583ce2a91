package repository

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// ActivityRepository define el puerto del sink de auditoría. Es append-only:
// no existen Update ni Delete.
type ActivityRepository interface {
	Append(ctx context.Context, entry *entity.ActivityEntry) error
	// ListByCompany: entradas cuyo sujeto es la empresa o cuyas propiedades
	// llevan company_id, más recientes primero.
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.ActivityEntry, error)
	// ListByUser: entradas causadas por el usuario o que lo tienen de sujeto.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.ActivityEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEntry, error)
}
