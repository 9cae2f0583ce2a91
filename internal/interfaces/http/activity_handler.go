package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Empresas-api/internal/application/usecase"
)

// ActivityHandler expone las lecturas del audit trail.
type ActivityHandler struct {
	uc *usecase.ActivityUseCase
}

// NewActivityHandler construye el handler de actividad.
func NewActivityHandler(uc *usecase.ActivityUseCase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

// CompanyFeed godoc
// @Summary      Actividad de la empresa activa
// @Tags         activity
// @Produce      json
// @Param        limit  query  int  false  "máximo de entradas"
// @Success      200  {object}  dto.ActivityListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/activity [get]
func (h *ActivityHandler) CompanyFeed(c *fiber.Ctx) error {
	out, err := h.uc.CompanyFeed(c.Context(), GetUserID(c), GetActiveCompanyID(c), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UserFeed godoc
// @Summary      Actividad de un usuario
// @Description  Entradas causadas por el usuario o que lo tienen de sujeto; solo roles administrativos
// @Tags         activity
// @Produce      json
// @Param        id     path   string  true   "ID del usuario"
// @Param        limit  query  int     false  "máximo de entradas"
// @Success      200  {object}  dto.ActivityListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/activity/users/{id} [get]
func (h *ActivityHandler) UserFeed(c *fiber.Ctx) error {
	out, err := h.uc.UserFeed(c.Context(), GetUserID(c), c.Params("id"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SystemFeed godoc
// @Summary      Actividad global reciente
// @Description  Solo Super Admin
// @Tags         activity
// @Produce      json
// @Param        limit  query  int  false  "máximo de entradas"
// @Success      200  {object}  dto.ActivityListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/activity/system [get]
func (h *ActivityHandler) SystemFeed(c *fiber.Ctx) error {
	out, err := h.uc.SystemFeed(c.Context(), GetUserID(c), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
