package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Licencias-api/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del módulo de Dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary godoc
// @Summary      KPIs de la empresa: billetera, licencias por estado y vencimientos
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Param        company_id    query  string  false  "Empresa (por defecto la del token)"
// @Param        horizon_days  query  int     false  "Horizonte de vencimientos"
// @Success      200  {object}  dto.DashboardSummaryDTO
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext(), ActorFrom(c), c.Query("company_id"), c.QueryInt("horizon_days", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
