package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// ContextUseCase expone el cambio explícito de empresa activa. La resolución
// por request la hace el middleware con el Resolver; aquí solo vive la
// operación de switch iniciada por el usuario, que además queda auditada.
type ContextUseCase struct {
	resolver  *tenantctx.Resolver
	companies repository.CompanyRepository
	activity  repository.ActivityRepository
	authz     *authz.Service
	log       zerolog.Logger
}

// NewContextUseCase construye el caso de uso de contexto.
func NewContextUseCase(resolver *tenantctx.Resolver, companies repository.CompanyRepository, activity repository.ActivityRepository, authzSvc *authz.Service, log zerolog.Logger) *ContextUseCase {
	return &ContextUseCase{resolver: resolver, companies: companies, activity: activity, authz: authzSvc, log: log}
}

// Switch cambia el contexto del usuario a otra empresa. Si el usuario no
// pertenece a la empresa pedida devuelve domain.ErrUnauthorizedCompany sin
// tocar la sesión.
func (uc *ContextUseCase) Switch(ctx context.Context, userID, companyID string) (*dto.SwitchCompanyResponse, error) {
	member, err := uc.authz.IsMember(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrUnauthorizedCompany
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if !company.Usable() {
		return nil, domain.ErrInactiveCompany
	}
	if err := uc.resolver.Adopt(ctx, userID, company); err != nil {
		return nil, err
	}
	if err := uc.activity.Append(ctx, &entity.ActivityEntry{
		ID:          uuid.New().String(),
		LogName:     entity.ActivityLogName,
		Event:       entity.EventCompanySwitch,
		Description: fmt.Sprintf("Contexto cambiado a la empresa %s", company.Name),
		SubjectType: entity.SubjectCompany,
		SubjectID:   company.ID,
		CauserID:    userID,
		Properties:  map[string]any{"company_id": company.ID, "company_name": company.Name},
		CreatedAt:   time.Now(),
	}); err != nil {
		// El switch ya se consumó; el fallo de auditoría no lo revierte pero
		// tampoco puede pasar en silencio.
		uc.log.Error().Err(err).Str("user_id", userID).Str("company_id", company.ID).Msg("fallo al auditar cambio de empresa")
	}
	return &dto.SwitchCompanyResponse{
		Message: "contexto de empresa cambiado",
		Company: *entityToCompanyResponse(company),
	}, nil
}
