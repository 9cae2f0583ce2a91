package authz_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeRoles struct {
	roles []*entity.Role
}

var _ repository.RoleRepository = (*fakeRoles)(nil)

func (f *fakeRoles) GetByID(_ context.Context, id string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}
func (f *fakeRoles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}
func (f *fakeRoles) ListWithPermissions(_ context.Context) ([]*entity.Role, error) {
	return f.roles, nil
}

// fakeMemberList implementa solo lo que el predicado consulta.
type fakeMemberList struct {
	repository.MembershipRepository
	list []*entity.Membership
}

func (f *fakeMemberList) Exists(_ context.Context, userID, companyID string) (bool, error) {
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberList) ListByUser(_ context.Context, userID string) ([]*entity.Membership, error) {
	var out []*entity.Membership
	for _, m := range f.list {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func allPermNames() []string {
	var out []string
	for _, p := range authz.All() {
		out = append(out, string(p))
	}
	return out
}

const (
	roleSuperID    = "role-super"
	roleAdminID    = "role-admin"
	roleEmployeeID = "role-employee"
)

func seededRoles() []*entity.Role {
	return []*entity.Role{
		{ID: roleSuperID, Name: entity.RoleSuperAdmin, Permissions: allPermNames()},
		{ID: roleAdminID, Name: entity.RoleCompanyAdmin, Permissions: []string{
			"view-users", "create-users", "edit-users", "delete-users", "view-roles", "view-activity-logs",
		}},
		{ID: roleEmployeeID, Name: "Employee", Permissions: []string{"view-users"}},
	}
}

func newService(t *testing.T, members *fakeMemberList) *authz.Service {
	t.Helper()
	registry, err := authz.LoadRegistry(context.Background(), &fakeRoles{roles: seededRoles()})
	require.NoError(t, err)
	return authz.NewService(registry, members, zerolog.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga del registro
// ──────────────────────────────────────────────────────────────────────────────

// El conjunto cerrado de permisos debe existir completo; si falta uno, el
// arranque falla.
func TestLoadRegistry_PermisoFaltante_Falla(t *testing.T) {
	roles := []*entity.Role{
		{ID: roleSuperID, Name: entity.RoleSuperAdmin, Permissions: []string{"view-users"}},
	}
	_, err := authz.LoadRegistry(context.Background(), &fakeRoles{roles: roles})
	assert.Error(t, err, "un permiso declarado pero no sembrado debe abortar el arranque")
}

func TestLoadRegistry_SinSuperAdmin_Falla(t *testing.T) {
	roles := []*entity.Role{
		{ID: roleAdminID, Name: entity.RoleCompanyAdmin, Permissions: allPermNames()},
	}
	_, err := authz.LoadRegistry(context.Background(), &fakeRoles{roles: roles})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Predicado
// ──────────────────────────────────────────────────────────────────────────────

func TestHasPermission_SegunRolDeMembresia(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "u1", CompanyID: "c1", RoleID: roleEmployeeID},
	}}
	svc := newService(t, members)

	ok, err := svc.HasPermission(context.Background(), "u1", authz.PermViewUsers)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(context.Background(), "u1", authz.PermDeleteUsers)
	require.NoError(t, err)
	assert.False(t, ok, "Employee no tiene delete-users")
}

// Super Admin omite la pertenencia pero no el permiso.
func TestCanInCompany_SuperAdminSinMembresiaLocal(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "super", CompanyID: "c1", RoleID: roleSuperID},
	}}
	svc := newService(t, members)

	ok, err := svc.CanInCompany(context.Background(), "super", authz.PermViewUsers, "c2")
	require.NoError(t, err)
	assert.True(t, ok, "Super Admin actúa en cualquier empresa si porta el permiso")
}

func TestCanInCompany_NoMiembro_Deniega(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "u1", CompanyID: "c1", RoleID: roleAdminID},
	}}
	svc := newService(t, members)

	ok, err := svc.CanInCompany(context.Background(), "u1", authz.PermViewUsers, "c2")
	require.NoError(t, err)
	assert.False(t, ok, "con permiso pero sin membresía en la empresa no pasa")
}

func TestIsSuperAdmin(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "u1", CompanyID: "c1", RoleID: roleAdminID},
		{UserID: "super", CompanyID: "c1", RoleID: roleSuperID},
	}}
	svc := newService(t, members)

	super, err := svc.IsSuperAdmin(context.Background(), "super")
	require.NoError(t, err)
	assert.True(t, super)

	super, err = svc.IsSuperAdmin(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, super, "Company Admin no es Super Admin")
}

// ──────────────────────────────────────────────────────────────────────────────
// Límite de tenant
// ──────────────────────────────────────────────────────────────────────────────

// Un no-Super-Admin solo puede mutar su empresa activa.
func TestEnsureTenantBoundary_CrossTenantRechazado(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "u1", CompanyID: "c1", RoleID: roleAdminID},
	}}
	svc := newService(t, members)

	err := svc.EnsureTenantBoundary(context.Background(), "u1", "c2", "c1")
	assert.ErrorIs(t, err, domain.ErrCrossTenantMutation)

	err = svc.EnsureTenantBoundary(context.Background(), "u1", "c1", "c1")
	assert.NoError(t, err)
}

func TestEnsureTenantBoundary_SuperAdminCruzaTenants(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "super", CompanyID: "c1", RoleID: roleSuperID},
	}}
	svc := newService(t, members)

	err := svc.EnsureTenantBoundary(context.Background(), "super", "c2", "c1")
	assert.NoError(t, err)
}

// Las dos reglas en orden: primero permiso, después límite de tenant.
func TestAuthorizeCompanyMutation_OrdenDeReglas(t *testing.T) {
	members := &fakeMemberList{list: []*entity.Membership{
		{UserID: "emp", CompanyID: "c1", RoleID: roleEmployeeID},
		{UserID: "adm", CompanyID: "c1", RoleID: roleAdminID},
	}}
	svc := newService(t, members)

	// Sin permiso → ErrPermissionDenied aunque además sea cross-tenant.
	err := svc.AuthorizeCompanyMutation(context.Background(), "emp", authz.PermEditUsers, "c2", "c1")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// Con permiso pero fuera de la empresa activa → ErrCrossTenantMutation.
	err = svc.AuthorizeCompanyMutation(context.Background(), "adm", authz.PermEditUsers, "c2", "c1")
	assert.ErrorIs(t, err, domain.ErrCrossTenantMutation)

	// Con permiso y dentro de la empresa activa → pasa.
	err = svc.AuthorizeCompanyMutation(context.Background(), "adm", authz.PermEditUsers, "c1", "c1")
	assert.NoError(t, err)
}
