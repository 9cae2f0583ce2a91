package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
)

// CompanyHandler maneja la gestión de empresas y el selector de empresas
// accesibles.
type CompanyHandler struct {
	uc *usecase.CompanyUseCase
}

// NewCompanyHandler construye el handler de empresas.
func NewCompanyHandler(uc *usecase.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Create godoc
// @Summary      Crear empresa
// @Description  Solo Super Admin con permiso create-companies
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" || in.Code == "" || in.Currency == "" || in.Timezone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name, code, currency y timezone son requeridos"})
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar todas las empresas
// @Description  Listado global, solo Super Admin
// @Tags         companies
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.CompanyListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/companies [get]
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	out, err := h.uc.List(c.Context(), GetUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListAccessible godoc
// @Summary      Empresas accesibles del usuario
// @Description  Las empresas a las que el usuario pertenece, con su rol y la marca de empresa por defecto
// @Tags         companies
// @Produce      json
// @Success      200  {array}  dto.AccessibleCompanyResponse
// @Security     BearerAuth
// @Router       /api/my-companies [get]
func (h *CompanyHandler) ListAccessible(c *fiber.Ctx) error {
	out, err := h.uc.ListAccessible(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener empresa
// @Tags         companies
// @Produce      json
// @Param        id  path  string  true  "ID de la empresa"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/companies/{id} [get]
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar empresa
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la empresa"
// @Param        body  body  dto.UpdateCompanyRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/companies/{id} [put]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Eliminar empresa
// @Description  Soft delete si tiene miembros; hard delete si está vacía. Solo Super Admin
// @Tags         companies
// @Produce      json
// @Param        id  path  string  true  "ID de la empresa"
// @Success      204  "sin contenido"
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/companies/{id} [delete]
func (h *CompanyHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.Context(), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
