package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/license"
)

// ActivationHandler endpoints públicos que consume el software licenciado.
type ActivationHandler struct {
	uc *license.ActivationUseCase
}

// NewActivationHandler construye el handler.
func NewActivationHandler(uc *license.ActivationUseCase) *ActivationHandler {
	return &ActivationHandler{uc: uc}
}

// Activate godoc
// @Summary      Activar licencia en un equipo
// @Tags         activations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ActivateRequest  true  "Llave de activación y equipo"
// @Success      200   {object}  dto.ActivationResponse
// @Failure      404   {object}  dto.ActivationResponse
// @Failure      409   {object}  dto.ActivationResponse
// @Failure      410   {object}  dto.ActivationResponse
// @Router       /api/activations [post]
func (h *ActivationHandler) Activate(c *fiber.Ctx) error {
	var in dto.ActivateRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Activate(c.UserContext(), license.ActivateInput{
		ActivationKey: in.ActivationKey,
		DeviceID:      in.DeviceID,
		DeviceInfo:    in.DeviceInfo,
		IP:            utils.CopyString(c.IP()),
		UserAgent:     utils.CopyString(c.Get(fiber.HeaderUserAgent)),
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeActivation(c, res)
}

// Validate godoc
// @Summary      Revalidar una licencia activada con la llave de equipo
// @Tags         activations
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateActivationRequest  true  "Llaves y equipo"
// @Success      200   {object}  dto.ActivationResponse
// @Failure      409   {object}  dto.ActivationResponse
// @Router       /api/activations/validate [post]
func (h *ActivationHandler) Validate(c *fiber.Ctx) error {
	var in dto.ValidateActivationRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Validate(c.UserContext(), license.ValidateInput{
		ActivationKey: in.ActivationKey,
		ComputerKey:   in.ComputerKey,
		DeviceID:      in.DeviceID,
		DeviceInfo:    in.DeviceInfo,
		IP:            utils.CopyString(c.IP()),
		UserAgent:     utils.CopyString(c.Get(fiber.HeaderUserAgent)),
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeActivation(c, res)
}

func writeActivation(c *fiber.Ctx, res license.ActivationResult) error {
	out := dto.ActivationResponse{
		Success:         res.Success,
		Code:            res.Code,
		Message:         res.Message,
		LicenseID:       res.LicenseID,
		Status:          res.Status,
		ComputerKey:     res.ComputerKey,
		ActivatedAt:     res.ActivatedAt,
		ExpiresAt:       res.ExpiresAt,
		FirstActivation: res.FirstActivation,
	}
	if res.Success {
		return c.JSON(out)
	}
	status, code := StatusFor(res.Err)
	if out.Code == "" {
		out.Code = code
	}
	return c.Status(status).JSON(out)
}
