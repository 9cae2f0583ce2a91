package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Empresas-api/internal/application/auth"
	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type regRoles struct {
	roles []*entity.Role
}

var _ repository.RoleRepository = (*regRoles)(nil)

func (f *regRoles) GetByID(_ context.Context, id string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}
func (f *regRoles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}
func (f *regRoles) ListWithPermissions(_ context.Context) ([]*entity.Role, error) {
	return f.roles, nil
}

type regUsers struct {
	byID map[string]*entity.User
}

var _ repository.UserRepository = (*regUsers)(nil)

func (f *regUsers) Create(_ context.Context, u *entity.User) error { f.byID[u.ID] = u; return nil }
func (f *regUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	return f.byID[id], nil
}
func (f *regUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *regUsers) Update(_ context.Context, u *entity.User) error { f.byID[u.ID] = u; return nil }
func (f *regUsers) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.User, error) {
	return nil, nil
}
func (f *regUsers) Delete(_ context.Context, id string) error { delete(f.byID, id); return nil }

// regCompanies implementa solo GetByID; el registro no usa el resto.
type regCompanies struct {
	repository.CompanyRepository
	byID map[string]*entity.Company
}

func (f *regCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return f.byID[id], nil
}

// regMemberships captura las membresías creadas en el onboarding.
type regMemberships struct {
	repository.MembershipRepository
	created []*entity.Membership
}

func (f *regMemberships) Create(_ context.Context, m *entity.Membership) error {
	f.created = append(f.created, m)
	return nil
}

type regActivity struct {
	repository.ActivityRepository
	entries []*entity.ActivityEntry
}

func (f *regActivity) Append(_ context.Context, e *entity.ActivityEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

// regTx ejecuta el onboarding directamente sobre los mismos fakes.
type regTx struct {
	users       *regUsers
	memberships *regMemberships
	activity    *regActivity
}

func (tx *regTx) RunOnboarding(_ context.Context, fn func(repository.UserRepository, repository.MembershipRepository, repository.ActivityRepository) error) error {
	return fn(tx.users, tx.memberships, tx.activity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario
// ──────────────────────────────────────────────────────────────────────────────

type authFixture struct {
	users       *regUsers
	memberships *regMemberships
	activity    *regActivity
	uc          *auth.AuthUseCase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	var perms []string
	for _, p := range authz.All() {
		perms = append(perms, string(p))
	}
	roles := &regRoles{roles: []*entity.Role{
		{ID: "role-super", Name: entity.RoleSuperAdmin, Permissions: perms},
		{ID: "role-admin", Name: entity.RoleCompanyAdmin, Permissions: []string{"view-users", "edit-users"}},
		{ID: "role-employee", Name: "Employee", Permissions: []string{"view-users"}},
	}}
	registry, err := authz.LoadRegistry(context.Background(), roles)
	require.NoError(t, err)

	users := &regUsers{byID: map[string]*entity.User{}}
	memberships := &regMemberships{}
	activity := &regActivity{}
	companies := &regCompanies{byID: map[string]*entity.Company{
		"c-acme": {ID: "c-acme", Name: "Acme", Code: "ACME", IsActive: true},
	}}
	tx := &regTx{users: users, memberships: memberships, activity: activity}

	return &authFixture{
		users:       users,
		memberships: memberships,
		activity:    activity,
		uc: auth.NewAuthUseCase(tx, users, companies, registry, auth.JWTConfig{
			Secret: "secreto-de-pruebas", ExpMinutes: 60, Issuer: "empresas-api",
		}),
	}
}

func registerReq(role string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:     "nuevo@acme.test",
		Password:  "contraseña-larga",
		Name:      "Nuevo",
		CompanyID: "c-acme",
		Role:      role,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterUser
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterUser_CreaUsuarioConMembresiaPorDefecto(t *testing.T) {
	f := newAuthFixture(t)

	out, err := f.uc.RegisterUser(context.Background(), registerReq("Employee"))
	require.NoError(t, err)
	assert.Equal(t, "nuevo@acme.test", out.Email)

	require.Len(t, f.memberships.created, 1)
	m := f.memberships.created[0]
	assert.Equal(t, "c-acme", m.CompanyID)
	assert.Equal(t, "role-employee", m.RoleID)
	assert.True(t, m.IsDefault, "la membresía inicial es la empresa por defecto")
	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, entity.EventUserCompanyAssignment, f.activity.entries[0].Event)
}

// El registro es público: nadie puede auto-otorgarse un rol administrativo,
// que cruzaría el límite de tenant en todo el sistema.
func TestRegisterUser_RolAdministrativo_Rechazado(t *testing.T) {
	for _, role := range []string{entity.RoleSuperAdmin, entity.RoleCompanyAdmin} {
		t.Run(role, func(t *testing.T) {
			f := newAuthFixture(t)

			_, err := f.uc.RegisterUser(context.Background(), registerReq(role))
			assert.ErrorIs(t, err, domain.ErrReservedRole)
			assert.Empty(t, f.users.byID, "un registro rechazado no crea el usuario")
			assert.Empty(t, f.memberships.created, "un registro rechazado no crea membresía")
		})
	}
}

func TestRegisterUser_RolDesconocido_Rechazado(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.RegisterUser(context.Background(), registerReq("Gerente Galáctico"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestRegisterUser_EmailDuplicado_Rechazado(t *testing.T) {
	f := newAuthFixture(t)
	f.users.byID["u-existente"] = &entity.User{ID: "u-existente", Email: "nuevo@acme.test"}

	_, err := f.uc.RegisterUser(context.Background(), registerReq("Employee"))
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterUser_EmpresaInactiva_Rechazada(t *testing.T) {
	f := newAuthFixture(t)
	req := registerReq("Employee")
	req.CompanyID = "c-fantasma"

	_, err := f.uc.RegisterUser(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas_DevuelveToken(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("contraseña-larga"), bcrypt.MinCost)
	require.NoError(t, err)
	f.users.byID["u1"] = &entity.User{ID: "u1", Email: "ana@acme.test", PasswordHash: string(hash)}

	out, err := f.uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.test", Password: "contraseña-larga"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "u1", out.User.ID)
}

func TestLogin_PasswordIncorrecto_Rechazado(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("contraseña-larga"), bcrypt.MinCost)
	require.NoError(t, err)
	f.users.byID["u1"] = &entity.User{ID: "u1", Email: "ana@acme.test", PasswordHash: string(hash)}

	_, err = f.uc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.test", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
