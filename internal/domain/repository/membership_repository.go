package repository

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// MembershipRepository define el puerto de persistencia para la asociación
// usuario↔empresa (tabla user_companies). Es la fuente de verdad tanto del
// resolver de contexto como del predicado de autorización.
type MembershipRepository interface {
	Create(ctx context.Context, m *entity.Membership) error
	Get(ctx context.Context, userID, companyID string) (*entity.Membership, error)
	// Exists es la consulta O(1) de pertenencia que usa el predicado.
	Exists(ctx context.Context, userID, companyID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error)
	// ListAssignments devuelve las membresías del usuario con empresa y rol
	// resueltos, en orden determinista (empresa ascendente).
	ListAssignments(ctx context.Context, userID string) ([]*entity.CompanyAssignment, error)
	// GetDefault devuelve la membresía con is_default=true, o nil si no hay.
	GetDefault(ctx context.Context, userID string) (*entity.Membership, error)
	// FirstActiveCompany devuelve la primera empresa activa del usuario en
	// orden determinista, excluyendo los IDs indicados; nil si no hay.
	FirstActiveCompany(ctx context.Context, userID string, excludeCompanyIDs ...string) (*entity.Company, error)
	UpdateRole(ctx context.Context, userID, companyID, roleID string) error
	// ClearDefaults pone is_default=false en todas las membresías del usuario.
	// Debe ejecutarse en la misma transacción que SetDefault.
	ClearDefaults(ctx context.Context, userID string) error
	SetDefault(ctx context.Context, userID, companyID string) error
	Delete(ctx context.Context, userID, companyID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByCompany(ctx context.Context, companyID string) (int, error)
	// CountByCompanyWithRoles cuenta membresías de la empresa cuyos role_id
	// están en la lista (guardia de último administrador).
	CountByCompanyWithRoles(ctx context.Context, companyID string, roleIDs []string) (int, error)
}
