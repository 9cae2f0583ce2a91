package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// CompanyContextMiddleware resuelve la empresa activa de cada request
// autenticado. Corre después de AuthMiddleware y deja el resultado en
// c.Locals: los handlers leen la empresa con GetActiveCompany y nunca
// vuelven a resolver.
//
// Los clientes API (Accept: application/json o XHR) nunca reciben una empresa
// sustituta en silencio: cualquier estado distinto de Resolved es 403. Los
// flujos de navegador degradan mejor: adoptan la alternativa con un aviso, o
// terminan en el login si no queda ninguna empresa usable.
func CompanyContextMiddleware(resolver *tenantctx.Resolver, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "request sin identidad"})
		}

		switchID := c.Query("switch_company_id")
		res, err := resolver.Resolve(c.Context(), userID, switchID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("fallo al resolver contexto de empresa")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo resolver el contexto de empresa"})
		}

		switch res.State {
		case tenantctx.Resolved:
			c.Locals(LocalActiveCompany, res.Company)
			return c.Next()

		case tenantctx.Unauthorized:
			// Recuperable: la sesión no se tocó; el usuario sigue en su
			// empresa anterior.
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED_COMPANY", Message: "no tienes acceso a la empresa solicitada"})
			}
			return redirectBack(c, "unauthorized_company")

		case tenantctx.Inactive:
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "INACTIVE_COMPANY", Message: "la empresa activa está desactivada"})
			}
			// Navegador: adoptar la alternativa y avisar.
			alt := res.Alternative
			if err := resolver.Adopt(c.Context(), userID, alt); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("fallo al adoptar empresa alternativa")
				return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo resolver el contexto de empresa"})
			}
			inactiveName := ""
			if res.InactiveCompany != nil {
				inactiveName = res.InactiveCompany.Name
			}
			c.Locals(LocalActiveCompany, alt)
			c.Locals(LocalContextWarning, fmt.Sprintf("La empresa %s está inactiva; ahora trabajas en %s", inactiveName, alt.Name))
			return c.Next()

		default: // NoAccess
			if err := resolver.Forget(c.Context(), userID); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("no se pudo limpiar la sesión de empresa")
			}
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "NO_COMPANY_ACCESS", Message: "no tienes acceso a ninguna empresa"})
			}
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
	}
}

// redirectBack devuelve al usuario a la página de origen (o al dashboard si no
// hay Referer) con un marcador de error en la query para mostrarlo inline.
func redirectBack(c *fiber.Ctx, errCode string) error {
	target := c.Get(fiber.HeaderReferer)
	if target == "" {
		target = "/dashboard"
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return c.Redirect(target+sep+"context_error="+errCode, fiber.StatusSeeOther)
}

// wantsJSON distingue clientes API de flujos de navegador.
func wantsJSON(c *fiber.Ctx) bool {
	if c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest" {
		return true
	}
	accept := c.Get(fiber.HeaderAccept)
	return strings.Contains(accept, fiber.MIMEApplicationJSON) || accept == "" || accept == "*/*"
}

// GetActiveCompany devuelve la empresa activa del request (después del
// middleware de contexto), o nil.
func GetActiveCompany(c *fiber.Ctx) *entity.Company {
	v := c.Locals(LocalActiveCompany)
	if v == nil {
		return nil
	}
	company, _ := v.(*entity.Company)
	return company
}

// GetActiveCompanyID devuelve el ID de la empresa activa, o "".
func GetActiveCompanyID(c *fiber.Ctx) string {
	if company := GetActiveCompany(c); company != nil {
		return company.ID
	}
	return ""
}

// GetContextWarning devuelve el aviso de sustitución de empresa, o "".
func GetContextWarning(c *fiber.Ctx) string {
	v := c.Locals(LocalContextWarning)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
