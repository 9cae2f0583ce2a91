package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
	httpiface "github.com/jhoicas/Empresas-api/internal/interfaces/http"
	"github.com/jhoicas/Empresas-api/pkg/jwt"
)

const testSecret = "secreto-de-pruebas"

// ──────────────────────────────────────────────────────────────────────────────
// Fakes mínimos para el resolver
// ──────────────────────────────────────────────────────────────────────────────

type fakeSessions struct {
	values map[string]string
}

var _ tenantctx.SessionStore = (*fakeSessions)(nil)

func (f *fakeSessions) GetActiveCompany(_ context.Context, userID string) (string, error) {
	return f.values[userID], nil
}
func (f *fakeSessions) SetActiveCompany(_ context.Context, userID, companyID string) error {
	f.values[userID] = companyID
	return nil
}
func (f *fakeSessions) Clear(_ context.Context, userID string) error {
	delete(f.values, userID)
	return nil
}

// fakeCompanies implementa solo GetByID; el middleware no usa el resto.
type fakeCompanies struct {
	repository.CompanyRepository
	byID map[string]*entity.Company
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return f.byID[id], nil
}

// fakeMemberships cubre las tres consultas de la cadena de resolución.
type fakeMemberships struct {
	repository.MembershipRepository
	list      []*entity.Membership
	companies *fakeCompanies
}

func (f *fakeMemberships) Exists(_ context.Context, userID, companyID string) (bool, error) {
	for _, m := range f.list {
		if m.UserID == userID && m.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMemberships) GetDefault(_ context.Context, userID string) (*entity.Membership, error) {
	for _, m := range f.list {
		if m.UserID == userID && m.IsDefault {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberships) FirstActiveCompany(_ context.Context, userID string, excludeIDs ...string) (*entity.Company, error) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var best *entity.Company
	for _, m := range f.list {
		if m.UserID != userID || excluded[m.CompanyID] {
			continue
		}
		c := f.companies.byID[m.CompanyID]
		if c == nil || !c.Usable() {
			continue
		}
		if best == nil || c.Name < best.Name {
			best = c
		}
	}
	return best, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario
// ──────────────────────────────────────────────────────────────────────────────

type middlewareFixture struct {
	app         *fiber.App
	sessions    *fakeSessions
	companies   *fakeCompanies
	memberships *fakeMemberships
}

// newMiddlewareFixture levanta la cadena real AuthMiddleware →
// CompanyContextMiddleware sobre fakes, con un handler que expone lo que los
// middlewares dejaron en Locals.
func newMiddlewareFixture() *middlewareFixture {
	companies := &fakeCompanies{byID: map[string]*entity.Company{
		"c-acme": {ID: "c-acme", Name: "Acme", Code: "ACME", IsActive: true},
		"c-beta": {ID: "c-beta", Name: "Beta", Code: "BETA", IsActive: true},
	}}
	memberships := &fakeMemberships{companies: companies}
	sessions := &fakeSessions{values: map[string]string{}}
	resolver := tenantctx.NewResolver(companies, memberships, sessions, zerolog.Nop())

	app := fiber.New()
	app.Get("/api/perfil",
		httpiface.AuthMiddleware(testSecret),
		httpiface.CompanyContextMiddleware(resolver, zerolog.Nop()),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":    httpiface.GetUserID(c),
				"company_id": httpiface.GetActiveCompanyID(c),
				"warning":    httpiface.GetContextWarning(c),
			})
		})

	return &middlewareFixture{app: app, sessions: sessions, companies: companies, memberships: memberships}
}

func (f *middlewareFixture) request(t *testing.T, token, query, accept string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/perfil"+query, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.Generate(testSecret, userID, userID+"@test.local", "empresas-api", 60)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinToken_401(t *testing.T) {
	f := newMiddlewareFixture()

	resp := f.request(t, "", "", "application/json")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", decodeBody(t, resp)["code"])
}

func TestAuthMiddleware_TokenInvalido_401(t *testing.T) {
	f := newMiddlewareFixture()

	resp := f.request(t, "no-es-un-jwt", "", "application/json")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", decodeBody(t, resp)["code"])
}

func TestAuthMiddleware_ExtraeIdentidadDelToken(t *testing.T) {
	f := newMiddlewareFixture()
	f.memberships.list = []*entity.Membership{{UserID: "u1", CompanyID: "c-acme", IsDefault: true}}

	resp := f.request(t, tokenFor(t, "u1"), "", "application/json")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", decodeBody(t, resp)["user_id"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución de contexto
// ──────────────────────────────────────────────────────────────────────────────

func TestContexto_Resuelto_ExponeEmpresaActiva(t *testing.T) {
	f := newMiddlewareFixture()
	f.memberships.list = []*entity.Membership{{UserID: "u1", CompanyID: "c-beta", IsDefault: true}}

	resp := f.request(t, tokenFor(t, "u1"), "", "application/json")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "c-beta", decodeBody(t, resp)["company_id"])
	assert.Equal(t, "c-beta", f.sessions.values["u1"], "la elección debe persistirse en sesión")
}

func TestContexto_SwitchAEmpresaAjena_403SinTocarSesion(t *testing.T) {
	f := newMiddlewareFixture()
	f.memberships.list = []*entity.Membership{{UserID: "u1", CompanyID: "c-acme", IsDefault: true}}
	f.sessions.values["u1"] = "c-acme"

	resp := f.request(t, tokenFor(t, "u1"), "?switch_company_id=c-beta", "application/json")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED_COMPANY", decodeBody(t, resp)["code"])
	assert.Equal(t, "c-acme", f.sessions.values["u1"], "un switch fallido no debe mover la sesión")
}

func TestContexto_SinEmpresas_403YLimpiaSesion(t *testing.T) {
	f := newMiddlewareFixture()
	f.sessions.values["u1"] = "c-acme" // sesión huérfana: ya no hay membresía

	resp := f.request(t, tokenFor(t, "u1"), "", "application/json")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NO_COMPANY_ACCESS", decodeBody(t, resp)["code"])
	_, stillThere := f.sessions.values["u1"]
	assert.False(t, stillThere, "sin acceso se olvida la selección de empresa")
}

func TestContexto_EmpresaInactiva_403ParaClientesAPI(t *testing.T) {
	f := newMiddlewareFixture()
	f.companies.byID["c-acme"].IsActive = false
	f.memberships.list = []*entity.Membership{
		{UserID: "u1", CompanyID: "c-acme", IsDefault: true},
		{UserID: "u1", CompanyID: "c-beta"},
	}

	resp := f.request(t, tokenFor(t, "u1"), "", "application/json")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INACTIVE_COMPANY", decodeBody(t, resp)["code"],
		"los clientes API nunca reciben una empresa sustituta en silencio")
}

func TestContexto_EmpresaInactiva_NavegadorAdoptaAlternativa(t *testing.T) {
	f := newMiddlewareFixture()
	f.companies.byID["c-acme"].IsActive = false
	f.memberships.list = []*entity.Membership{
		{UserID: "u1", CompanyID: "c-acme", IsDefault: true},
		{UserID: "u1", CompanyID: "c-beta"},
	}

	resp := f.request(t, tokenFor(t, "u1"), "", "text/html")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "c-beta", body["company_id"])
	assert.NotEmpty(t, body["warning"], "la sustitución debe venir acompañada de un aviso")
	assert.Equal(t, "c-beta", f.sessions.values["u1"], "la alternativa adoptada se persiste")
}

func TestContexto_NavegadorSinAcceso_RedirigeALogin(t *testing.T) {
	f := newMiddlewareFixture()

	resp := f.request(t, tokenFor(t, "u1"), "", "text/html")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

// Un switch no autorizado desde navegador vuelve a la página de origen con un
// marcador de error inline; sin Referer cae al dashboard.
func TestContexto_NavegadorSwitchAjeno_VuelveConError(t *testing.T) {
	f := newMiddlewareFixture()
	f.memberships.list = []*entity.Membership{{UserID: "u1", CompanyID: "c-acme", IsDefault: true}}

	resp := f.request(t, tokenFor(t, "u1"), "?switch_company_id=c-beta", "text/html")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard?context_error=unauthorized_company", resp.Header.Get("Location"))
}

func TestContexto_NavegadorSwitchAjeno_RespetaElReferer(t *testing.T) {
	f := newMiddlewareFixture()
	f.memberships.list = []*entity.Membership{{UserID: "u1", CompanyID: "c-acme", IsDefault: true}}
	f.sessions.values["u1"] = "c-acme"

	req := httptest.NewRequest(http.MethodGet, "/api/perfil?switch_company_id=c-beta", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "u1"))
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Referer", "/companies?page=2")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/companies?page=2&context_error=unauthorized_company", resp.Header.Get("Location"))
	assert.Equal(t, "c-acme", f.sessions.values["u1"], "un switch fallido no debe mover la sesión")
}
