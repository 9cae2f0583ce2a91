package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
)

// UserHandler maneja los usuarios, siempre con alcance de la empresa activa
// del actor.
type UserHandler struct {
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler de usuarios.
func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// Create godoc
// @Summary      Crear usuario en la empresa activa
// @Description  El usuario nace con membresía en la empresa activa del actor
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cuerpo de request inválido"})
	}
	if req.Email == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y role son requeridos"})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el password debe tener al menos 8 caracteres"})
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), GetActiveCompanyID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar usuarios de la empresa activa
// @Tags         users
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.UserListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	out, err := h.uc.ListByActiveCompany(c.Context(), GetUserID(c), GetActiveCompanyID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener usuario
// @Description  Solo usuarios con membresía en la empresa activa del actor
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "ID del usuario"
// @Success      200  {object}  dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
