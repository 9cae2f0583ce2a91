package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// OnboardingTxRunner ejecuta el alta de un usuario (fila + membresía inicial +
// auditoría) en una sola transacción. Misma forma que el runner de registro;
// la implementación de postgres satisface ambos.
type OnboardingTxRunner interface {
	RunOnboarding(ctx context.Context, fn func(
		users repository.UserRepository,
		memberships repository.MembershipRepository,
		activity repository.ActivityRepository,
	) error) error
}

// UserUseCase aplica reglas de negocio para usuarios. Todas las operaciones
// tienen alcance de la empresa activa del actor: un usuario de otra empresa
// simplemente no existe desde este contexto.
type UserUseCase struct {
	repo        repository.UserRepository
	memberships repository.MembershipRepository
	companies   repository.CompanyRepository
	tx          OnboardingTxRunner
	authz       *authz.Service
}

// NewUserUseCase construye el caso de uso con sus puertos.
func NewUserUseCase(repo repository.UserRepository, memberships repository.MembershipRepository, companies repository.CompanyRepository, tx OnboardingTxRunner, authzSvc *authz.Service) *UserUseCase {
	return &UserUseCase{repo: repo, memberships: memberships, companies: companies, tx: tx, authz: authzSvc}
}

// Create crea un usuario con membresía inicial en la empresa activa del actor.
// Requiere create-users en esa empresa. El usuario nace con la empresa activa
// como su empresa por defecto.
func (uc *UserUseCase) Create(ctx context.Context, actorID, activeCompanyID string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	ok, err := uc.authz.CanInCompany(ctx, actorID, authz.PermCreateUsers, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}

	company, err := uc.companies.GetByID(ctx, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if !company.Usable() {
		return nil, domain.ErrInactiveCompany
	}

	existing, err := uc.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	role := uc.authz.Registry().RoleByName(in.Role)
	if role == nil {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := in.Name
	if name == "" {
		name = in.Email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.tx.RunOnboarding(ctx, func(users repository.UserRepository, memberships repository.MembershipRepository, activity repository.ActivityRepository) error {
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		m := &entity.Membership{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			CompanyID: company.ID,
			RoleID:    role.ID,
			IsDefault: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := memberships.Create(ctx, m); err != nil {
			return err
		}
		return activity.Append(ctx, &entity.ActivityEntry{
			ID:          uuid.New().String(),
			LogName:     entity.ActivityLogName,
			Event:       entity.EventUserCompanyAssignment,
			Description: fmt.Sprintf("Usuario %s creado en la empresa %s con rol %s", user.Name, company.Name, role.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   user.ID,
			CauserID:    actorID,
			Properties: map[string]any{
				"company_id":   company.ID,
				"company_name": company.Name,
				"role":         role.Name,
				"action":       "created_by_admin",
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// ListByActiveCompany lista los usuarios de la empresa activa. Requiere
// view-users con alcance en esa empresa.
func (uc *UserUseCase) ListByActiveCompany(ctx context.Context, actorID, activeCompanyID string, limit, offset int) (*dto.UserListResponse, error) {
	ok, err := uc.authz.CanInCompany(ctx, actorID, authz.PermViewUsers, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	list, err := uc.repo.ListByCompany(ctx, activeCompanyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *entityToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// GetByID obtiene un usuario visible desde la empresa activa del actor.
// Devuelve ErrUserNotFound si el usuario no pertenece a ella.
func (uc *UserUseCase) GetByID(ctx context.Context, actorID, activeCompanyID, id string) (*dto.UserResponse, error) {
	ok, err := uc.authz.CanInCompany(ctx, actorID, authz.PermViewUsers, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	member, err := uc.memberships.Exists(ctx, id, activeCompanyID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrUserNotFound
	}
	return entityToUserResponse(user), nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
