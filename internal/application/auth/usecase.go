package auth

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
	"github.com/jhoicas/Empresas-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// TxRunner ejecuta el onboarding (usuario + membresía inicial + auditoría)
// en una sola transacción.
type TxRunner interface {
	RunOnboarding(ctx context.Context, fn func(
		users repository.UserRepository,
		memberships repository.MembershipRepository,
		activity repository.ActivityRepository,
	) error) error
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	tx          TxRunner
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	registry    *authz.Registry
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx TxRunner, userRepo repository.UserRepository, companyRepo repository.CompanyRepository, registry *authz.Registry, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{tx: tx, userRepo: userRepo, companyRepo: companyRepo, registry: registry, jwtCfg: jwtCfg}
}

// RegisterUser crea un usuario con su membresía inicial (marcada como empresa
// por defecto) en una sola transacción: un usuario sin membresías no tiene
// estado válido, así que el alta nunca lo deja a medias. Devuelve
// ErrEmailAlreadyExists si el email ya está registrado. Los roles
// administrativos no pueden elegirse aquí: el registro es público y un rol
// administrativo cruza tenants, así que solo un administrador autenticado
// puede otorgarlo (vía asignación de membresía).
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if !company.Usable() {
		return nil, domain.ErrInactiveCompany
	}
	role := uc.registry.RoleByName(in.Role)
	if role == nil {
		return nil, domain.ErrInvalidRole
	}
	if role.IsAdministrative() {
		return nil, domain.ErrReservedRole
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
			Description: fmt.Sprintf("Usuario %s registrado en la empresa %s con rol %s", user.Name, company.Name, role.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   user.ID,
			Properties: map[string]any{
				"company_id":   company.ID,
				"company_name": company.Name,
				"role":         role.Name,
				"action":       "registered",
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario. La
// empresa activa no viaja en el token: la resuelve el middleware de contexto
// en cada request.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
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
