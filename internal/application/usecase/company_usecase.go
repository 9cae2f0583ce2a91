package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/currency"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	repo        repository.CompanyRepository
	memberships repository.MembershipRepository
	activity    repository.ActivityRepository
	authz       *authz.Service
	log         zerolog.Logger
}

// NewCompanyUseCase construye el caso de uso con sus puertos.
func NewCompanyUseCase(repo repository.CompanyRepository, memberships repository.MembershipRepository, activity repository.ActivityRepository, authzSvc *authz.Service, log zerolog.Logger) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, memberships: memberships, activity: activity, authz: authzSvc, log: log}
}

// Create crea una nueva empresa. Solo Super Admin con create-companies puede
// hacerlo (la gestión de empresas cruza tenants por definición). Devuelve
// domain.ErrDuplicate si el código ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, actorID string, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if err := uc.requireManagement(ctx, actorID, authz.PermCreateCompanies); err != nil {
		return nil, err
	}
	if err := validateCurrency(in.Currency); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	company := &entity.Company{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Code:        strings.ToUpper(in.Code),
		Description: in.Description,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		Country:     in.Country,
		PostalCode:  in.PostalCode,
		Currency:    strings.ToUpper(in.Currency),
		Timezone:    in.Timezone,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	if err := uc.activity.Append(ctx, &entity.ActivityEntry{
		ID:          uuid.New().String(),
		LogName:     entity.ActivityLogName,
		Event:       entity.EventBusinessOperation,
		Description: fmt.Sprintf("Empresa %s creada", company.Name),
		SubjectType: entity.SubjectCompany,
		SubjectID:   company.ID,
		CauserID:    actorID,
		Properties:  map[string]any{"operation": "company_created", "company_id": company.ID, "code": company.Code},
		CreatedAt:   now,
	}); err != nil {
		uc.log.Error().Err(err).Str("company_id", company.ID).Msg("fallo al auditar creación de empresa")
	}
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene una empresa. El actor debe pertenecer a ella o ser Super Admin.
func (uc *CompanyUseCase) GetByID(ctx context.Context, actorID, id string) (*dto.CompanyResponse, error) {
	if err := uc.requireAccess(ctx, actorID, id); err != nil {
		return nil, err
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(company), nil
}

// List lista todas las empresas con paginación. Requiere view-companies y
// Super Admin (el listado global cruza tenants).
func (uc *CompanyUseCase) List(ctx context.Context, actorID string, limit, offset int) (*dto.CompanyListResponse, error) {
	if err := uc.requireManagement(ctx, actorID, authz.PermViewCompanies); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// ListAccessible devuelve las empresas a las que el actor pertenece, con su
// rol y flag de empresa por defecto (alimenta el selector de empresas).
func (uc *CompanyUseCase) ListAccessible(ctx context.Context, actorID string) ([]dto.AccessibleCompanyResponse, error) {
	assignments, err := uc.memberships.ListAssignments(ctx, actorID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AccessibleCompanyResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, dto.AccessibleCompanyResponse{
			ID:        a.CompanyID,
			Name:      a.CompanyName,
			Code:      a.CompanyCode,
			IsActive:  a.CompanyIsActive,
			Role:      a.RoleName,
			IsDefault: a.IsDefault,
		})
	}
	return out, nil
}

// Update actualiza campos de una empresa. Requiere edit-companies y acceso.
func (uc *CompanyUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	ok, err := uc.authz.HasPermission(ctx, actorID, authz.PermEditCompanies)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	if err := uc.requireAccess(ctx, actorID, id); err != nil {
		return nil, err
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if in.Currency != nil {
		if err := validateCurrency(*in.Currency); err != nil {
			return nil, err
		}
		company.Currency = strings.ToUpper(*in.Currency)
	}
	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&company.Name, in.Name)
	applyString(&company.Description, in.Description)
	applyString(&company.Email, in.Email)
	applyString(&company.Phone, in.Phone)
	applyString(&company.Address, in.Address)
	applyString(&company.City, in.City)
	applyString(&company.State, in.State)
	applyString(&company.Country, in.Country)
	applyString(&company.PostalCode, in.PostalCode)
	applyString(&company.Timezone, in.Timezone)
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company), nil
}

// Deactivate marca la empresa como eliminada (soft delete). El hard delete se
// rechaza mientras existan membresías: una empresa con miembros activos nunca
// se borra físicamente.
func (uc *CompanyUseCase) Deactivate(ctx context.Context, actorID, id string) error {
	if err := uc.requireManagement(ctx, actorID, authz.PermDeleteCompanies); err != nil {
		return err
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	members, err := uc.memberships.CountByCompany(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		// Con miembros solo se permite el soft delete.
		if err := uc.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
	} else if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.activity.Append(ctx, &entity.ActivityEntry{
		ID:          uuid.New().String(),
		LogName:     entity.ActivityLogName,
		Event:       entity.EventBusinessOperation,
		Description: fmt.Sprintf("Empresa %s eliminada", company.Name),
		SubjectType: entity.SubjectCompany,
		SubjectID:   company.ID,
		CauserID:    actorID,
		Properties:  map[string]any{"operation": "company_deleted", "company_id": company.ID, "soft": members > 0},
		CreatedAt:   time.Now(),
	}); err != nil {
		uc.log.Error().Err(err).Str("company_id", company.ID).Msg("fallo al auditar eliminación de empresa")
	}
	return nil
}

// requireManagement: permiso + rol Super Admin (gestión global de empresas).
func (uc *CompanyUseCase) requireManagement(ctx context.Context, actorID string, perm authz.Permission) error {
	ok, err := uc.authz.HasPermission(ctx, actorID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	super, err := uc.authz.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !super {
		return domain.ErrPermissionDenied
	}
	return nil
}

// requireAccess: membresía en la empresa o Super Admin.
func (uc *CompanyUseCase) requireAccess(ctx context.Context, actorID, companyID string) error {
	super, err := uc.authz.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if super {
		return nil
	}
	member, err := uc.authz.IsMember(ctx, actorID, companyID)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrUnauthorizedCompany
	}
	return nil
}

// validateCurrency verifica que el código sea una moneda ISO 4217 conocida.
func validateCurrency(code string) error {
	if _, err := currency.ParseISO(code); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Description: c.Description,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		Country:     c.Country,
		PostalCode:  c.PostalCode,
		Currency:    c.Currency,
		Timezone:    c.Timezone,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
