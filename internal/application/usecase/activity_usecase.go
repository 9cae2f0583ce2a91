package usecase

import (
	"context"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// ActivityUseCase consulta el audit trail. Las escrituras no pasan por aquí:
// cada mutación emite su entrada dentro de su propia transacción.
type ActivityUseCase struct {
	repo  repository.ActivityRepository
	users repository.UserRepository
	authz *authz.Service
}

// NewActivityUseCase construye el caso de uso de actividad.
func NewActivityUseCase(repo repository.ActivityRepository, users repository.UserRepository, authzSvc *authz.Service) *ActivityUseCase {
	return &ActivityUseCase{repo: repo, users: users, authz: authzSvc}
}

// CompanyFeed devuelve la actividad de la empresa activa. Requiere
// view-activity-logs con alcance en esa empresa.
func (uc *ActivityUseCase) CompanyFeed(ctx context.Context, actorID, activeCompanyID string, limit int) (*dto.ActivityListResponse, error) {
	ok, err := uc.authz.CanInCompany(ctx, actorID, authz.PermViewActivityLogs, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	entries, err := uc.repo.ListByCompany(ctx, activeCompanyID, normalizeLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(ctx, entries)
}

// UserFeed devuelve la actividad causada por (o sobre) un usuario. Reservada
// a roles administrativos.
func (uc *ActivityUseCase) UserFeed(ctx context.Context, actorID, targetUserID string, limit int) (*dto.ActivityListResponse, error) {
	admin, err := uc.isAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, domain.ErrPermissionDenied
	}
	entries, err := uc.repo.ListByUser(ctx, targetUserID, normalizeLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(ctx, entries)
}

// SystemFeed devuelve la actividad global reciente. Solo Super Admin.
func (uc *ActivityUseCase) SystemFeed(ctx context.Context, actorID string, limit int) (*dto.ActivityListResponse, error) {
	super, err := uc.authz.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !super {
		return nil, domain.ErrPermissionDenied
	}
	entries, err := uc.repo.ListRecent(ctx, normalizeLimit(limit, 100))
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(ctx, entries)
}

func (uc *ActivityUseCase) isAdmin(ctx context.Context, userID string) (bool, error) {
	super, err := uc.authz.HasRole(ctx, userID, entity.RoleSuperAdmin)
	if err != nil || super {
		return super, err
	}
	return uc.authz.HasRole(ctx, userID, entity.RoleCompanyAdmin)
}

// toListResponse resuelve los actores de las entradas en una sola pasada
// (un fetch por causer único) y arma la respuesta.
func (uc *ActivityUseCase) toListResponse(ctx context.Context, entries []*entity.ActivityEntry) (*dto.ActivityListResponse, error) {
	causers := make(map[string]*entity.User)
	for _, e := range entries {
		if e.CauserID == "" {
			continue
		}
		if _, seen := causers[e.CauserID]; seen {
			continue
		}
		u, err := uc.users.GetByID(ctx, e.CauserID)
		if err != nil {
			return nil, err
		}
		causers[e.CauserID] = u
	}

	out := &dto.ActivityListResponse{Activities: make([]dto.ActivityResponse, 0, len(entries))}
	for _, e := range entries {
		resp := dto.ActivityResponse{
			ID:          e.ID,
			Description: e.Description,
			Event:       e.Event,
			CreatedAt:   e.CreatedAt,
			Properties:  e.Properties,
		}
		if u := causers[e.CauserID]; u != nil {
			resp.Causer = &dto.ActivityCauserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		if e.SubjectType != "" {
			resp.Subject = &dto.ActivitySubjectResponse{Type: e.SubjectType, ID: e.SubjectID}
		}
		out.Activities = append(out.Activities, resp)
	}
	return out, nil
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 200 {
		return 200
	}
	return limit
}
