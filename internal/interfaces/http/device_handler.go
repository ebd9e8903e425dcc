package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
)

// DeviceHandler registro de instalaciones del software.
type DeviceHandler struct {
	uc *usecase.DeviceRegistrationUseCase
}

// NewDeviceHandler construye el handler.
func NewDeviceHandler(uc *usecase.DeviceRegistrationUseCase) *DeviceHandler {
	return &DeviceHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar equipo (o latido)
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterDeviceRequest  true  "Empresa, producto y equipo"
// @Success      200   {object}  dto.RegisteredDeviceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/devices/register [post]
func (h *DeviceHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterDeviceRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	d, err := h.uc.Register(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RegisteredDeviceResponse{
		ID:          d.ID,
		DeviceUID:   d.DeviceUID,
		OSName:      d.OSName,
		OSVersion:   d.OSVersion,
		Hostname:    d.Hostname,
		Bound:       d.ComputerKey != nil && *d.ComputerKey != "",
		UsageCount:  d.UsageCount,
		FirstSeenAt: d.FirstSeenAt,
		LastSeenAt:  d.LastSeenAt,
	})
}

// ListByNIT godoc
// @Summary      Equipos registrados de una empresa
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        nit  query  string  true  "NIT de la empresa"
// @Success      200  {array}  dto.DeviceRegistrationResponse
// @Router       /api/devices [get]
func (h *DeviceHandler) ListByNIT(c *fiber.Ctx) error {
	out, err := h.uc.ListByNIT(c.UserContext(), ActorFrom(c), c.Query("nit"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
