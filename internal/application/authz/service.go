package authz

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Service es el predicado de autorización: compone la consulta de pertenencia
// a empresa (Membership) con la consulta de permisos por rol (Registry).
// Super Admin omite la restricción de pertenencia pero no la de permiso.
type Service struct {
	registry    *Registry
	memberships repository.MembershipRepository
	log         zerolog.Logger
}

// NewService construye el predicado con el registro ya cargado.
func NewService(registry *Registry, memberships repository.MembershipRepository, log zerolog.Logger) *Service {
	return &Service{registry: registry, memberships: memberships, log: log}
}

// Registry expone el registro para quien necesite resolver roles por nombre.
func (s *Service) Registry() *Registry {
	return s.registry
}

// IsMember informa si el usuario tiene membresía en la empresa. O(1) sobre el
// par único (user_id, company_id).
func (s *Service) IsMember(ctx context.Context, userID, companyID string) (bool, error) {
	return s.memberships.Exists(ctx, userID, companyID)
}

// IsSuperAdmin informa si alguna membresía del usuario porta el rol Super Admin.
func (s *Service) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	list, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, m := range list {
		if s.registry.IsSuperAdminRole(m.RoleID) {
			return true, nil
		}
	}
	return false, nil
}

// HasPermission informa si alguno de los roles asignados al usuario (en
// cualquiera de sus membresías) otorga el permiso.
func (s *Service) HasPermission(ctx context.Context, userID string, perm Permission) (bool, error) {
	list, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, m := range list {
		if s.registry.RoleGrants(m.RoleID, perm) {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyPermission informa si el usuario tiene al menos uno de los permisos.
func (s *Service) HasAnyPermission(ctx context.Context, userID string, perms ...Permission) (bool, error) {
	for _, p := range perms {
		ok, err := s.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CanInCompany es la verificación con alcance de empresa: el usuario debe
// pertenecer a la empresa Y portar el permiso. Super Admin actúa como miembro
// de todas las empresas, pero el permiso se exige igual.
func (s *Service) CanInCompany(ctx context.Context, userID string, perm Permission, companyID string) (bool, error) {
	ok, err := s.HasPermission(ctx, userID, perm)
	if err != nil || !ok {
		return false, err
	}
	super, err := s.IsSuperAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}
	return s.memberships.Exists(ctx, userID, companyID)
}

// HasRole informa si alguna membresía del usuario porta el rol con ese nombre.
func (s *Service) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	list, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, m := range list {
		if role := s.registry.Role(m.RoleID); role != nil && role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// EnsureTenantBoundary aplica solo el invariante de aislamiento: si el actor
// no es Super Admin, la empresa objetivo debe ser su empresa activa.
func (s *Service) EnsureTenantBoundary(ctx context.Context, actorID, targetCompanyID, activeCompanyID string) error {
	super, err := s.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !super && targetCompanyID != activeCompanyID {
		s.log.Warn().
			Str("user_id", actorID).
			Str("target_company_id", targetCompanyID).
			Str("active_company_id", activeCompanyID).
			Msg("mutación cross-tenant rechazada")
		return domain.ErrCrossTenantMutation
	}
	return nil
}

// AuthorizeCompanyMutation aplica, en orden, las dos reglas que protegen toda
// mutación que cruza el límite del tenant:
//  1. el actor debe portar el permiso → domain.ErrPermissionDenied si no;
//  2. si el actor no es Super Admin, la empresa objetivo debe ser su empresa
//     activa → domain.ErrCrossTenantMutation si no. Esta segunda regla es el
//     invariante de aislamiento de tenants y nunca se omite.
func (s *Service) AuthorizeCompanyMutation(ctx context.Context, actorID string, perm Permission, targetCompanyID, activeCompanyID string) error {
	ok, err := s.HasPermission(ctx, actorID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return s.EnsureTenantBoundary(ctx, actorID, targetCompanyID, activeCompanyID)
}
