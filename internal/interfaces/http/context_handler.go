package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/dto"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// ContextHandler expone la empresa activa del request y el cambio explícito
// de contexto.
type ContextHandler struct {
	uc *usecase.ContextUseCase
}

// NewContextHandler construye el handler de contexto.
func NewContextHandler(uc *usecase.ContextUseCase) *ContextHandler {
	return &ContextHandler{uc: uc}
}

// Current godoc
// @Summary      Contexto de empresa actual
// @Description  La empresa activa resuelta para este request (con aviso si hubo sustitución)
// @Tags         context
// @Produce      json
// @Success      200  {object}  dto.ContextResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/context [get]
func (h *ContextHandler) Current(c *fiber.Ctx) error {
	company := GetActiveCompany(c)
	if company == nil {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "NO_COMPANY_ACCESS", Message: "no hay empresa activa"})
	}
	return c.JSON(dto.ContextResponse{
		Company: companyToResponse(company),
		Warning: GetContextWarning(c),
	})
}

// Switch godoc
// @Summary      Cambiar de empresa
// @Description  Cambia el contexto a otra empresa del usuario; la elección se recuerda entre requests
// @Tags         context
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CompanyIDRequest  true  "company_id destino"
// @Success      200   {object}  dto.SwitchCompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/switch-company [post]
func (h *ContextHandler) Switch(c *fiber.Ctx) error {
	var in dto.CompanyIDRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.CompanyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "company_id es requerido"})
	}
	out, err := h.uc.Switch(c.Context(), GetUserID(c), in.CompanyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func companyToResponse(c *entity.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Description: c.Description,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		Country:     c.Country,
		PostalCode:  c.PostalCode,
		Currency:    c.Currency,
		Timezone:    c.Timezone,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
