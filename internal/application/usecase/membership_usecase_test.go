package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memCompanies struct {
	byID map[string]*entity.Company
}

var _ repository.CompanyRepository = (*memCompanies)(nil)

func (f *memCompanies) Create(_ context.Context, c *entity.Company) error { f.byID[c.ID] = c; return nil }
func (f *memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return f.byID[id], nil
}
func (f *memCompanies) GetByCode(_ context.Context, code string) (*entity.Company, error) {
	for _, c := range f.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}
func (f *memCompanies) Update(_ context.Context, c *entity.Company) error { f.byID[c.ID] = c; return nil }
func (f *memCompanies) List(_ context.Context, _, _ int) ([]*entity.Company, error) {
	return nil, nil
}
func (f *memCompanies) SoftDelete(_ context.Context, _ string) error { return nil }
func (f *memCompanies) Delete(_ context.Context, id string) error    { delete(f.byID, id); return nil }

type memUsers struct {
	byID map[string]*entity.User
}

var _ repository.UserRepository = (*memUsers)(nil)

func (f *memUsers) Create(_ context.Context, u *entity.User) error { f.byID[u.ID] = u; return nil }
func (f *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return f.byID[id], nil
}
func (f *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *memUsers) Update(_ context.Context, u *entity.User) error { f.byID[u.ID] = u; return nil }
func (f *memUsers) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.User, error) {
	return nil, nil
}
func (f *memUsers) Delete(_ context.Context, id string) error { delete(f.byID, id); return nil }

type memMemberships struct {
	list []*entity.Membership
}

var _ repository.MembershipRepository = (*memMemberships)(nil)

func (f *memMemberships) Create(_ context.Context, m *entity.Membership) error {
	for _, e := range f.list {
		if e.UserID == m.UserID && e.CompanyID == m.CompanyID {
			return domain.ErrMembershipExists
		}
	}
	f.list = append(f.list, m)
	return nil
}
func (f *memMemberships) Get(_ context.Context, userID, companyID string) (*entity.Membership, error) {
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			return m, nil
		}
	}
	return nil, nil
}
func (f *memMemberships) Exists(ctx context.Context, userID, companyID string) (bool, error) {
	m, _ := f.Get(ctx, userID, companyID)
	return m != nil, nil
}
func (f *memMemberships) ListByUser(_ context.Context, userID string) ([]*entity.Membership, error) {
	var out []*entity.Membership
	for _, m := range f.list {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *memMemberships) ListAssignments(_ context.Context, _ string) ([]*entity.CompanyAssignment, error) {
	return nil, nil
}
func (f *memMemberships) GetDefault(_ context.Context, userID string) (*entity.Membership, error) {
	for _, m := range f.list {
		if m.UserID == userID && m.IsDefault {
			return m, nil
		}
	}
	return nil, nil
}
func (f *memMemberships) FirstActiveCompany(_ context.Context, _ string, _ ...string) (*entity.Company, error) {
	return nil, nil
}
func (f *memMemberships) UpdateRole(_ context.Context, userID, companyID, roleID string) error {
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			m.RoleID = roleID
			return nil
		}
	}
	return domain.ErrMembershipNotFound
}
func (f *memMemberships) ClearDefaults(_ context.Context, userID string) error {
	for _, m := range f.list {
		if m.UserID == userID {
			m.IsDefault = false
		}
	}
	return nil
}
func (f *memMemberships) SetDefault(_ context.Context, userID, companyID string) error {
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			m.IsDefault = true
			return nil
		}
	}
	return domain.ErrMembershipNotFound
}
func (f *memMemberships) Delete(_ context.Context, userID, companyID string) error {
	out := f.list[:0]
	found := false
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			found = true
			continue
		}
		out = append(out, m)
	}
	f.list = out
	if !found {
		return domain.ErrMembershipNotFound
	}
	return nil
}
func (f *memMemberships) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, m := range f.list {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}
func (f *memMemberships) CountByCompany(_ context.Context, companyID string) (int, error) {
	n := 0
	for _, m := range f.list {
		if m.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}
func (f *memMemberships) CountByCompanyWithRoles(_ context.Context, companyID string, roleIDs []string) (int, error) {
	ids := make(map[string]bool, len(roleIDs))
	for _, id := range roleIDs {
		ids[id] = true
	}
	n := 0
	for _, m := range f.list {
		if m.CompanyID == companyID && ids[m.RoleID] {
			n++
		}
	}
	return n, nil
}

func (f *memMemberships) defaultsOf(userID string) int {
	n := 0
	for _, m := range f.list {
		if m.UserID == userID && m.IsDefault {
			n++
		}
	}
	return n
}

type memActivity struct {
	entries []*entity.ActivityEntry
}

var _ repository.ActivityRepository = (*memActivity)(nil)

func (f *memActivity) Append(_ context.Context, e *entity.ActivityEntry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *memActivity) ListByCompany(_ context.Context, _ string, _ int) ([]*entity.ActivityEntry, error) {
	return f.entries, nil
}
func (f *memActivity) ListByUser(_ context.Context, _ string, _ int) ([]*entity.ActivityEntry, error) {
	return f.entries, nil
}
func (f *memActivity) ListRecent(_ context.Context, _ int) ([]*entity.ActivityEntry, error) {
	return f.entries, nil
}

func (f *memActivity) last() *entity.ActivityEntry {
	if len(f.entries) == 0 {
		return nil
	}
	return f.entries[len(f.entries)-1]
}

// memTx ejecuta el callback directamente sobre los mismos fakes (sin
// transacción real; la atomicidad se prueba en integración).
type memTx struct {
	memberships *memMemberships
	activity    *memActivity
}

func (tx *memTx) Run(_ context.Context, fn func(repository.MembershipRepository, repository.ActivityRepository) error) error {
	return fn(tx.memberships, tx.activity)
}

type memRoles struct {
	roles []*entity.Role
}

var _ repository.RoleRepository = (*memRoles)(nil)

func (f *memRoles) GetByID(_ context.Context, id string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}
func (f *memRoles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}
func (f *memRoles) ListWithPermissions(_ context.Context) ([]*entity.Role, error) {
	return f.roles, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del escenario
// ──────────────────────────────────────────────────────────────────────────────

const (
	roleSuperID    = "role-super"
	roleAdminID    = "role-admin"
	roleEmployeeID = "role-employee"

	actorAdmin  = "user-admin"  // Company Admin en Acme
	actorSuper  = "user-super"  // Super Admin
	targetUser  = "user-target" // usuario a mutar
	companyAcme = "company-acme"
	companyBeta = "company-beta"
)

type fixture struct {
	companies   *memCompanies
	users       *memUsers
	memberships *memMemberships
	activity    *memActivity
	uc          *usecase.MembershipUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var perms []string
	for _, p := range authz.All() {
		perms = append(perms, string(p))
	}
	roles := &memRoles{roles: []*entity.Role{
		{ID: roleSuperID, Name: entity.RoleSuperAdmin, Permissions: perms},
		{ID: roleAdminID, Name: entity.RoleCompanyAdmin, Permissions: []string{
			"view-users", "create-users", "edit-users", "delete-users", "view-roles", "view-activity-logs",
		}},
		{ID: roleEmployeeID, Name: "Employee", Permissions: []string{"view-users"}},
	}}
	registry, err := authz.LoadRegistry(context.Background(), roles)
	require.NoError(t, err)

	companies := &memCompanies{byID: map[string]*entity.Company{
		companyAcme: {ID: companyAcme, Name: "Acme", Code: "ACME", IsActive: true},
		companyBeta: {ID: companyBeta, Name: "Beta", Code: "BETA", IsActive: true},
	}}
	users := &memUsers{byID: map[string]*entity.User{
		actorAdmin: {ID: actorAdmin, Name: "Admin Acme", Email: "admin@acme.test"},
		actorSuper: {ID: actorSuper, Name: "Root", Email: "root@sistema.test"},
		targetUser: {ID: targetUser, Name: "Objetivo", Email: "objetivo@acme.test"},
	}}
	memberships := &memMemberships{list: []*entity.Membership{
		{ID: "m-admin", UserID: actorAdmin, CompanyID: companyAcme, RoleID: roleAdminID, IsDefault: true},
		{ID: "m-super", UserID: actorSuper, CompanyID: companyAcme, RoleID: roleSuperID, IsDefault: true},
	}}
	activity := &memActivity{}
	authzSvc := authz.NewService(registry, memberships, zerolog.Nop())
	tx := &memTx{memberships: memberships, activity: activity}

	return &fixture{
		companies:   companies,
		users:       users,
		memberships: memberships,
		activity:    activity,
		uc:          usecase.NewMembershipUseCase(tx, memberships, companies, users, authzSvc),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Assign
// ──────────────────────────────────────────────────────────────────────────────

func TestAssign_CreaMembresiaYAuditoria(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Assign(context.Background(), actorAdmin, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyAcme, Role: entity.RoleCompanyAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, targetUser, out.UserID)
	assert.Equal(t, entity.RoleCompanyAdmin, out.Role)

	m, _ := f.memberships.Get(context.Background(), targetUser, companyAcme)
	require.NotNil(t, m, "la membresía debe quedar persistida")
	assert.Equal(t, roleAdminID, m.RoleID)

	entry := f.activity.last()
	require.NotNil(t, entry, "toda mutación exitosa produce una entrada de auditoría")
	assert.Equal(t, entity.EventUserCompanyAssignment, entry.Event)
	assert.Equal(t, actorAdmin, entry.CauserID)
	assert.Equal(t, companyAcme, entry.Properties["company_id"])
}

// is_default_company=true limpia el default anterior: nunca hay dos.
func TestAssign_ConDefault_LimpiaElAnterior(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list, &entity.Membership{
		ID: "m-prev", UserID: targetUser, CompanyID: companyBeta, RoleID: roleEmployeeID, IsDefault: true,
	})

	_, err := f.uc.Assign(context.Background(), actorSuper, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyAcme, Role: "Employee", IsDefaultCompany: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.memberships.defaultsOf(targetUser),
		"el usuario debe tener exactamente una empresa por defecto")
	m, _ := f.memberships.Get(context.Background(), targetUser, companyAcme)
	assert.True(t, m.IsDefault)
}

func TestAssign_ParDuplicado_Rechazado(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list, &entity.Membership{
		ID: "m-dup", UserID: targetUser, CompanyID: companyAcme, RoleID: roleEmployeeID,
	})

	_, err := f.uc.Assign(context.Background(), actorAdmin, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyAcme, Role: "Employee",
	})
	assert.ErrorIs(t, err, domain.ErrMembershipExists)
}

func TestAssign_EmpresaInactiva_Rechazada(t *testing.T) {
	f := newFixture(t)
	f.companies.byID[companyAcme].IsActive = false

	_, err := f.uc.Assign(context.Background(), actorSuper, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyAcme, Role: "Employee",
	})
	assert.ErrorIs(t, err, domain.ErrInactiveCompany)
	assert.Nil(t, f.activity.last(), "una mutación rechazada no deja auditoría")
}

func TestAssign_RolDesconocido_Rechazado(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Assign(context.Background(), actorAdmin, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyAcme, Role: "Gerente Galáctico",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

// Un Company Admin no puede asignar hacia una empresa distinta de su activa.
func TestAssign_CrossTenantPorNoSuper_Rechazado(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Assign(context.Background(), actorAdmin, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyBeta, Role: "Employee",
	})
	assert.ErrorIs(t, err, domain.ErrCrossTenantMutation)

	m, _ := f.memberships.Get(context.Background(), targetUser, companyBeta)
	assert.Nil(t, m, "no debe quedar estado parcial")
}

// Super Admin sí cruza tenants.
func TestAssign_CrossTenantPorSuper_Permitido(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Assign(context.Background(), actorSuper, companyAcme, targetUser, dto.AssignCompanyRequest{
		CompanyID: companyBeta, Role: "Employee",
	})
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateRole
// ──────────────────────────────────────────────────────────────────────────────

// Degradar al único administrador dejaría la empresa sin administración.
func TestUpdateRole_UltimoAdministrador_Rechazado(t *testing.T) {
	f := newFixture(t)
	// El super admin cuenta como administrador en Acme; quitarlo del medio.
	require.NoError(t, f.memberships.Delete(context.Background(), actorSuper, companyAcme))

	_, err := f.uc.UpdateRole(context.Background(), actorAdmin, companyAcme, actorAdmin, dto.UpdateRoleRequest{
		CompanyID: companyAcme, Role: "Employee",
	})
	assert.ErrorIs(t, err, domain.ErrLastAdministrator)
}

func TestUpdateRole_ConOtroAdmin_CambiaYAudita(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list, &entity.Membership{
		ID: "m-target", UserID: targetUser, CompanyID: companyAcme, RoleID: roleAdminID,
	})

	out, err := f.uc.UpdateRole(context.Background(), actorAdmin, companyAcme, targetUser, dto.UpdateRoleRequest{
		CompanyID: companyAcme, Role: "Employee",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleCompanyAdmin, out.OldRole)
	assert.Equal(t, "Employee", out.NewRole)

	entry := f.activity.last()
	require.NotNil(t, entry)
	assert.Equal(t, entity.EventRoleChange, entry.Event)
	assert.Equal(t, entity.RoleCompanyAdmin, entry.Properties["old_role"])
	assert.Equal(t, "Employee", entry.Properties["new_role"])
}

// Promover nunca dispara la guardia.
func TestUpdateRole_PromoverAAdmin_Permitido(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list, &entity.Membership{
		ID: "m-target", UserID: targetUser, CompanyID: companyAcme, RoleID: roleEmployeeID,
	})

	_, err := f.uc.UpdateRole(context.Background(), actorAdmin, companyAcme, targetUser, dto.UpdateRoleRequest{
		CompanyID: companyAcme, Role: entity.RoleCompanyAdmin,
	})
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Remove
// ──────────────────────────────────────────────────────────────────────────────

func TestRemove_UnicaMembresia_Rechazado(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list, &entity.Membership{
		ID: "m-target", UserID: targetUser, CompanyID: companyAcme, RoleID: roleEmployeeID,
	})

	err := f.uc.Remove(context.Background(), actorAdmin, companyAcme, targetUser, companyAcme)
	assert.ErrorIs(t, err, domain.ErrOnlyMembership)

	m, _ := f.memberships.Get(context.Background(), targetUser, companyAcme)
	assert.NotNil(t, m, "la membresía debe conservarse")
}

func TestRemove_ConOtraMembresia_EliminaYAudita(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list,
		&entity.Membership{ID: "m-t1", UserID: targetUser, CompanyID: companyAcme, RoleID: roleEmployeeID},
		&entity.Membership{ID: "m-t2", UserID: targetUser, CompanyID: companyBeta, RoleID: roleEmployeeID},
	)

	err := f.uc.Remove(context.Background(), actorAdmin, companyAcme, targetUser, companyAcme)
	require.NoError(t, err)

	m, _ := f.memberships.Get(context.Background(), targetUser, companyAcme)
	assert.Nil(t, m)
	entry := f.activity.last()
	require.NotNil(t, entry)
	assert.Equal(t, entity.EventBusinessOperation, entry.Event)
}

// ──────────────────────────────────────────────────────────────────────────────
// SetDefault
// ──────────────────────────────────────────────────────────────────────────────

func TestSetDefault_SiempreQuedaExactamenteUno(t *testing.T) {
	f := newFixture(t)
	f.memberships.list = append(f.memberships.list,
		&entity.Membership{ID: "m-t1", UserID: targetUser, CompanyID: companyAcme, RoleID: roleEmployeeID, IsDefault: true},
		&entity.Membership{ID: "m-t2", UserID: targetUser, CompanyID: companyBeta, RoleID: roleEmployeeID},
	)

	err := f.uc.SetDefault(context.Background(), actorSuper, targetUser, companyBeta)
	require.NoError(t, err)

	assert.Equal(t, 1, f.memberships.defaultsOf(targetUser))
	m, _ := f.memberships.Get(context.Background(), targetUser, companyBeta)
	assert.True(t, m.IsDefault)
}

func TestSetDefault_SinMembresiaObjetivo_Rechazado(t *testing.T) {
	f := newFixture(t)

	err := f.uc.SetDefault(context.Background(), actorSuper, targetUser, companyBeta)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}
