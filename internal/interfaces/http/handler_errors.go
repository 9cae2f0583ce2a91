package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/domain"
)

// respondError traduce los errores de dominio a respuestas HTTP estructuradas.
// Ningún error de negocio debe llegar al cliente como fallo genérico.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: "el usuario no existe"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
	// Violaciones de invariantes de membresía: 400 con mensaje específico (la
	// transacción ya se revirtió; no queda mutación parcial).
	case errors.Is(err, domain.ErrMembershipNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MEMBERSHIP_NOT_FOUND", Message: "el usuario no está asignado a esta empresa"})
	case errors.Is(err, domain.ErrMembershipExists):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MEMBERSHIP_EXISTS", Message: "el usuario ya está asignado a esta empresa"})
	case errors.Is(err, domain.ErrOnlyMembership):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ONLY_MEMBERSHIP", Message: "no se puede quitar al usuario de su única empresa"})
	case errors.Is(err, domain.ErrLastAdministrator):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "LAST_ADMINISTRATOR", Message: "la empresa no puede quedar sin administradores"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrCompanyHasMembers):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "COMPANY_HAS_MEMBERS", Message: "la empresa tiene membresías activas"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual"})
	case errors.Is(err, domain.ErrInvalidRole):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ROLE", Message: "rol desconocido"})
	case errors.Is(err, domain.ErrReservedRole):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "RESERVED_ROLE", Message: "el rol no está disponible para el registro"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "entrada inválida"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrUnauthorizedCompany):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED_COMPANY", Message: "no tienes acceso a la empresa solicitada"})
	case errors.Is(err, domain.ErrNoCompanyAccess):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "NO_COMPANY_ACCESS", Message: "no tienes acceso a ninguna empresa"})
	case errors.Is(err, domain.ErrInactiveCompany):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "INACTIVE_COMPANY", Message: "la empresa está inactiva"})
	case errors.Is(err, domain.ErrCrossTenantMutation):
		// Misma respuesta que un permiso insuficiente; el intento ya quedó
		// registrado aparte en el log de autorización.
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acción no permitida"})
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acción no permitida"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
