package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// TxRunner ejecuta un callback con repos de membresías y actividad atados a
// una misma transacción. La implementación vive en infrastructure/postgres.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		memberships repository.MembershipRepository,
		activity repository.ActivityRepository,
	) error) error
}

// MembershipUseCase implementa las mutaciones de la asociación usuario↔empresa:
// assign, updateRole, remove y setDefault. Cada operación es una transacción
// lógica única; si falla una regla, no queda estado parcial.
type MembershipUseCase struct {
	tx          TxRunner
	memberships repository.MembershipRepository
	companies   repository.CompanyRepository
	users       repository.UserRepository
	authz       *authz.Service
}

// NewMembershipUseCase construye el caso de uso con sus puertos.
func NewMembershipUseCase(tx TxRunner, memberships repository.MembershipRepository, companies repository.CompanyRepository, users repository.UserRepository, authzSvc *authz.Service) *MembershipUseCase {
	return &MembershipUseCase{tx: tx, memberships: memberships, companies: companies, users: users, authz: authzSvc}
}

// Assign asigna el usuario objetivo a una empresa con un rol. Rechaza pares
// duplicados, empresas inactivas y roles desconocidos. Si isDefault viene
// activo, limpia los demás defaults del usuario antes de fijar este
// (clear-then-set, dentro de la transacción).
func (uc *MembershipUseCase) Assign(ctx context.Context, actorID, activeCompanyID, targetUserID string, in dto.AssignCompanyRequest) (*dto.AssignmentResponse, error) {
	ok, err := uc.authz.HasAnyPermission(ctx, actorID, authz.PermViewCompanies, authz.PermEditUsers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPermissionDenied
	}
	if err := uc.authz.EnsureTenantBoundary(ctx, actorID, in.CompanyID, activeCompanyID); err != nil {
		return nil, err
	}

	company, err := uc.companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if !company.Usable() {
		return nil, domain.ErrInactiveCompany
	}

	target, err := uc.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrUserNotFound
	}

	exists, err := uc.memberships.Exists(ctx, targetUserID, company.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrMembershipExists
	}

	role := uc.authz.Registry().RoleByName(in.Role)
	if role == nil {
		return nil, domain.ErrInvalidRole
	}

	now := time.Now()
	err = uc.tx.Run(ctx, func(memberships repository.MembershipRepository, activity repository.ActivityRepository) error {
		if in.IsDefaultCompany {
			if err := memberships.ClearDefaults(ctx, targetUserID); err != nil {
				return err
			}
		}
		m := &entity.Membership{
			ID:        uuid.New().String(),
			UserID:    targetUserID,
			CompanyID: company.ID,
			RoleID:    role.ID,
			IsDefault: in.IsDefaultCompany,
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
			Description: fmt.Sprintf("Usuario %s asignado a la empresa %s con rol %s", target.Name, company.Name, role.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   target.ID,
			CauserID:    actorID,
			Properties: map[string]any{
				"company_id":   company.ID,
				"company_name": company.Name,
				"role":         role.Name,
				"is_default":   in.IsDefaultCompany,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return &dto.AssignmentResponse{
		UserID:           target.ID,
		UserName:         target.Name,
		CompanyID:        company.ID,
		CompanyName:      company.Name,
		Role:             role.Name,
		IsDefaultCompany: in.IsDefaultCompany,
	}, nil
}

// UpdateRole cambia el rol del usuario objetivo dentro de una empresa.
// Guardia: si el usuario es el último portador de un rol administrativo en la
// empresa y el rol nuevo no es administrativo, se rechaza (la empresa no puede
// quedar sin administradores).
func (uc *MembershipUseCase) UpdateRole(ctx context.Context, actorID, activeCompanyID, targetUserID string, in dto.UpdateRoleRequest) (*dto.RoleChangeResponse, error) {
	if err := uc.authz.AuthorizeCompanyMutation(ctx, actorID, authz.PermEditUsers, in.CompanyID, activeCompanyID); err != nil {
		return nil, err
	}

	company, err := uc.companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	target, err := uc.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrUserNotFound
	}

	m, err := uc.memberships.Get(ctx, targetUserID, company.ID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMembershipNotFound
	}

	registry := uc.authz.Registry()
	newRole := registry.RoleByName(in.Role)
	if newRole == nil {
		return nil, domain.ErrInvalidRole
	}
	oldRole := registry.Role(m.RoleID)

	if oldRole.IsAdministrative() && !newRole.IsAdministrative() {
		admins, err := uc.memberships.CountByCompanyWithRoles(ctx, company.ID, registry.AdministrativeRoleIDs())
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, domain.ErrLastAdministrator
		}
	}

	oldRoleName := ""
	if oldRole != nil {
		oldRoleName = oldRole.Name
	}

	err = uc.tx.Run(ctx, func(memberships repository.MembershipRepository, activity repository.ActivityRepository) error {
		if err := memberships.UpdateRole(ctx, targetUserID, company.ID, newRole.ID); err != nil {
			return err
		}
		return activity.Append(ctx, &entity.ActivityEntry{
			ID:          uuid.New().String(),
			LogName:     entity.ActivityLogName,
			Event:       entity.EventRoleChange,
			Description: fmt.Sprintf("Rol de %s cambiado de %s a %s en la empresa %s", target.Name, oldRoleName, newRole.Name, company.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   target.ID,
			CauserID:    actorID,
			Properties: map[string]any{
				"old_role":     oldRoleName,
				"new_role":     newRole.Name,
				"company_id":   company.ID,
				"company_name": company.Name,
			},
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return &dto.RoleChangeResponse{
		UserID:      target.ID,
		UserName:    target.Name,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		OldRole:     oldRoleName,
		NewRole:     newRole.Name,
	}, nil
}

// Remove quita al usuario objetivo de una empresa. Se rechaza si es su única
// membresía: un usuario sin empresas no tiene estado válido en el sistema.
func (uc *MembershipUseCase) Remove(ctx context.Context, actorID, activeCompanyID, targetUserID, companyID string) error {
	if err := uc.authz.AuthorizeCompanyMutation(ctx, actorID, authz.PermDeleteUsers, companyID, activeCompanyID); err != nil {
		return err
	}

	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	target, err := uc.users.GetByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrUserNotFound
	}

	exists, err := uc.memberships.Exists(ctx, targetUserID, company.ID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrMembershipNotFound
	}

	total, err := uc.memberships.CountByUser(ctx, targetUserID)
	if err != nil {
		return err
	}
	if total <= 1 {
		return domain.ErrOnlyMembership
	}

	return uc.tx.Run(ctx, func(memberships repository.MembershipRepository, activity repository.ActivityRepository) error {
		if err := memberships.Delete(ctx, targetUserID, company.ID); err != nil {
			return err
		}
		return activity.Append(ctx, &entity.ActivityEntry{
			ID:          uuid.New().String(),
			LogName:     entity.ActivityLogName,
			Event:       entity.EventBusinessOperation,
			Description: fmt.Sprintf("Usuario %s retirado de la empresa %s", target.Name, company.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   target.ID,
			CauserID:    actorID,
			Properties: map[string]any{
				"operation":    "user_removed_from_company",
				"company_id":   company.ID,
				"company_name": company.Name,
			},
			CreatedAt: time.Now(),
		})
	})
}

// SetDefault fija la empresa por defecto del usuario objetivo. El actor y el
// objetivo deben tener acceso a la empresa. Limpia todos los defaults del
// usuario y fija el nuevo en la misma transacción: nunca hay una ventana con
// cero o dos defaults.
func (uc *MembershipUseCase) SetDefault(ctx context.Context, actorID, targetUserID, companyID string) error {
	ok, err := uc.authz.HasPermission(ctx, actorID, authz.PermEditUsers)
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
		member, err := uc.authz.IsMember(ctx, actorID, companyID)
		if err != nil {
			return err
		}
		if !member {
			return domain.ErrUnauthorizedCompany
		}
	}

	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	target, err := uc.users.GetByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrUserNotFound
	}

	exists, err := uc.memberships.Exists(ctx, targetUserID, company.ID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrMembershipNotFound
	}

	return uc.tx.Run(ctx, func(memberships repository.MembershipRepository, activity repository.ActivityRepository) error {
		if err := memberships.ClearDefaults(ctx, targetUserID); err != nil {
			return err
		}
		if err := memberships.SetDefault(ctx, targetUserID, company.ID); err != nil {
			return err
		}
		return activity.Append(ctx, &entity.ActivityEntry{
			ID:          uuid.New().String(),
			LogName:     entity.ActivityLogName,
			Event:       entity.EventBusinessOperation,
			Description: fmt.Sprintf("Empresa por defecto de %s cambiada a %s", target.Name, company.Name),
			SubjectType: entity.SubjectUser,
			SubjectID:   target.ID,
			CauserID:    actorID,
			Properties: map[string]any{
				"operation":    "default_company_changed",
				"company_id":   company.ID,
				"company_name": company.Name,
			},
			CreatedAt: time.Now(),
		})
	})
}

// Roles devuelve las asignaciones del usuario objetivo restringidas a las
// empresas que el actor puede ver (todas si es Super Admin), junto con los
// roles disponibles y agregados.
func (uc *MembershipUseCase) Roles(ctx context.Context, actorID, activeCompanyID, targetUserID string) (*dto.UserRolesResponse, error) {
	target, err := uc.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrUserNotFound
	}

	// El objetivo debe ser visible desde la empresa activa del actor.
	if activeCompanyID != "" {
		visible, err := uc.memberships.Exists(ctx, targetUserID, activeCompanyID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, domain.ErrUserNotFound
		}
	}

	assignments, err := uc.memberships.ListAssignments(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	super, err := uc.authz.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var actorCompanies map[string]bool
	if !super {
		actorAssignments, err := uc.memberships.ListAssignments(ctx, actorID)
		if err != nil {
			return nil, err
		}
		actorCompanies = make(map[string]bool, len(actorAssignments))
		for _, a := range actorAssignments {
			actorCompanies[a.CompanyID] = true
		}
	}

	registry := uc.authz.Registry()
	out := dto.UserRolesResponse{
		User: dto.UserResponse{
			ID:        target.ID,
			Email:     target.Email,
			Name:      target.Name,
			CreatedAt: target.CreatedAt,
			UpdatedAt: target.UpdatedAt,
		},
	}
	for _, a := range assignments {
		if actorCompanies != nil && !actorCompanies[a.CompanyID] {
			continue
		}
		resp := dto.CompanyAssignmentResponse{
			CompanyID:   a.CompanyID,
			CompanyName: a.CompanyName,
			CompanyCode: a.CompanyCode,
			RoleID:      a.RoleID,
			RoleName:    a.RoleName,
			IsDefault:   a.IsDefault,
			AssignedAt:  a.AssignedAt,
			UpdatedAt:   a.UpdatedAt,
		}
		out.CompanyAssignments = append(out.CompanyAssignments, resp)
		if a.IsDefault {
			d := resp
			out.Statistics.DefaultCompany = &d
		}
		if role := registry.Role(a.RoleID); role.IsAdministrative() {
			out.Statistics.AdminCompanies++
		}
	}
	out.Statistics.TotalCompanies = len(out.CompanyAssignments)
	for _, role := range registry.Roles() {
		out.AvailableRoles = append(out.AvailableRoles, dto.RoleResponse{ID: role.ID, Name: role.Name})
	}
	return &out, nil
}
