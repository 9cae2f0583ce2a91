package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
)

// UserRoleHandler maneja las mutaciones de membresías usuario↔empresa:
// asignar, cambiar rol, quitar y fijar empresa por defecto.
type UserRoleHandler struct {
	uc *usecase.MembershipUseCase
}

// NewUserRoleHandler construye el handler de membresías.
func NewUserRoleHandler(uc *usecase.MembershipUseCase) *UserRoleHandler {
	return &UserRoleHandler{uc: uc}
}

// Assign godoc
// @Summary      Asignar usuario a empresa
// @Description  Crea la membresía con rol; opcionalmente la marca como empresa por defecto
// @Tags         user-roles
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del usuario objetivo"
// @Param        body  body  dto.AssignCompanyRequest  true  "company_id, role, is_default_company"
// @Success      201   {object}  dto.AssignmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id}/assign-company [post]
func (h *UserRoleHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" || in.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "company_id y role son requeridos"})
	}
	out, err := h.uc.Assign(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateRole godoc
// @Summary      Cambiar rol en empresa
// @Description  Cambia el rol del usuario dentro de una empresa; la empresa nunca queda sin administradores
// @Tags         user-roles
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del usuario objetivo"
// @Param        body  body  dto.UpdateRoleRequest  true  "company_id, role"
// @Success      200   {object}  dto.RoleChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id}/role [put]
func (h *UserRoleHandler) UpdateRole(c *fiber.Ctx) error {
	var in dto.UpdateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" || in.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "company_id y role son requeridos"})
	}
	out, err := h.uc.UpdateRole(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Quitar usuario de empresa
// @Description  Elimina la membresía; se rechaza si es la única empresa del usuario
// @Tags         user-roles
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del usuario objetivo"
// @Param        body  body  dto.CompanyIDRequest  true  "company_id"
// @Success      204   "sin contenido"
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id}/remove-company [delete]
func (h *UserRoleHandler) Remove(c *fiber.Ctx) error {
	var in dto.CompanyIDRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "company_id es requerido"})
	}
	if err := h.uc.Remove(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.Params("id"), in.CompanyID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetDefault godoc
// @Summary      Fijar empresa por defecto
// @Description  Marca la empresa por defecto del usuario; siempre hay a lo sumo una
// @Tags         user-roles
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del usuario objetivo"
// @Param        body  body  dto.CompanyIDRequest  true  "company_id"
// @Success      204   "sin contenido"
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id}/default-company [put]
func (h *UserRoleHandler) SetDefault(c *fiber.Ctx) error {
	var in dto.CompanyIDRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "company_id es requerido"})
	}
	if err := h.uc.SetDefault(c.Context(), GetUserID(c), c.Params("id"), in.CompanyID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Roles godoc
// @Summary      Asignaciones de un usuario
// @Description  Las membresías del usuario visibles para el actor, con roles disponibles y estadísticas
// @Tags         user-roles
// @Produce      json
// @Param        id  path  string  true  "ID del usuario objetivo"
// @Success      200  {object}  dto.UserRolesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id}/roles [get]
func (h *UserRoleHandler) Roles(c *fiber.Ctx) error {
	out, err := h.uc.Roles(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
