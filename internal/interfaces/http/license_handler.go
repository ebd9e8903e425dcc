package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/license"
)

// LicenseHandler gestión de licencias emitidas.
type LicenseHandler struct {
	uc             *license.UseCase
	sales          *billing.SalesUseCase
	defaultHorizon int
	nowFn          func() time.Time
}

// NewLicenseHandler construye el handler. defaultHorizon son los días usados por /expiring sin ?days.
func NewLicenseHandler(uc *license.UseCase, sales *billing.SalesUseCase, defaultHorizon int) *LicenseHandler {
	return &LicenseHandler{uc: uc, sales: sales, defaultHorizon: defaultHorizon, nowFn: time.Now}
}

func viewResponse(v *license.View) dto.LicenseResponse {
	return dto.NewLicenseResponse(v.License, v.EffectiveStatus)
}

// Issue godoc
// @Summary      Emitir licencia
// @Tags         licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueLicenseRequest  true  "Cliente y producto"
// @Success      201   {object}  dto.LicenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/licenses [post]
func (h *LicenseHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueLicenseRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	v, err := h.uc.Issue(c.UserContext(), ActorFrom(c), license.IssueInput{
		ClientID:  in.ClientID,
		ProductID: in.ProductID,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(viewResponse(v))
}

// Get godoc
// @Summary      Obtener licencia (estado vigente calculado)
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {object}  dto.LicenseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/licenses/{id} [get]
func (h *LicenseHandler) Get(c *fiber.Ctx) error {
	v, err := h.uc.Get(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(viewResponse(v))
}

// List godoc
// @Summary      Listar licencias
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        client_id   query  string  false  "Cliente"
// @Param        product_id  query  string  false  "Producto"
// @Param        status      query  string  false  "Estado vigente"
// @Param        limit       query  int     false  "Límite"   default(20)
// @Param        offset      query  int     false  "Offset"   default(0)
// @Success      200         {object}  dto.LicenseListResponse
// @Router       /api/licenses [get]
func (h *LicenseHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	views, err := h.uc.List(c.UserContext(), ActorFrom(c), license.ListInput{
		ClientID:  c.Query("client_id"),
		ProductID: c.Query("product_id"),
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LicenseResponse, 0, len(views))
	for _, v := range views {
		items = append(items, viewResponse(v))
	}
	return c.JSON(dto.LicenseListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// Expiring godoc
// @Summary      Licencias que vencen dentro del horizonte
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Horizonte en días"
// @Success      200   {array}  dto.LicenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/licenses/expiring [get]
func (h *LicenseHandler) Expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.defaultHorizon)
	views, err := h.uc.ListExpiring(c.UserContext(), ActorFrom(c), h.nowFn(), days)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LicenseResponse, 0, len(views))
	for _, v := range views {
		items = append(items, viewResponse(v))
	}
	return c.JSON(items)
}

// Suspend godoc
// @Summary      Suspender licencia
// @Tags         licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la licencia"
// @Param        body  body  dto.SuspendLicenseRequest  true  "Motivo"
// @Success      200   {object}  dto.LicenseResponse
// @Router       /api/licenses/{id}/suspend [post]
func (h *LicenseHandler) Suspend(c *fiber.Ctx) error {
	var in dto.SuspendLicenseRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	v, err := h.uc.Suspend(c.UserContext(), ActorFrom(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(viewResponse(v))
}

// Reactivate godoc
// @Summary      Levantar la suspensión
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {object}  dto.LicenseResponse
// @Router       /api/licenses/{id}/reactivate [post]
func (h *LicenseHandler) Reactivate(c *fiber.Ctx) error {
	v, err := h.uc.Reactivate(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(viewResponse(v))
}

// Renew godoc
// @Summary      Renovar licencia
// @Tags         licenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la licencia"
// @Param        body  body  dto.RenewLicenseRequest  true  "expires_at o extra_days"
// @Success      200   {object}  dto.LicenseResponse
// @Router       /api/licenses/{id}/renew [post]
func (h *LicenseHandler) Renew(c *fiber.Ctx) error {
	var in dto.RenewLicenseRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	v, err := h.uc.Renew(c.UserContext(), ActorFrom(c), c.Params("id"), license.RenewInput{
		ExpiresAt: in.ExpiresAt,
		ExtraDays: in.ExtraDays,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(viewResponse(v))
}

// ResetBinding godoc
// @Summary      Liberar el equipo vinculado
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {object}  dto.LicenseResponse
// @Router       /api/licenses/{id}/reset-binding [post]
func (h *LicenseHandler) ResetBinding(c *fiber.Ctx) error {
	v, err := h.uc.ResetBinding(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(viewResponse(v))
}

// File godoc
// @Summary      Archivo de licencia offline firmado (XMLDSig)
// @Tags         licenses
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/licenses/{id}/file [get]
func (h *LicenseHandler) File(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.uc.ExportFile(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="licencia-%s.lic"`, id))
	return c.Send(out)
}

// Certificate godoc
// @Summary      Certificado PDF de la licencia
// @Tags         licenses
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {file}  file
// @Router       /api/licenses/{id}/certificate [get]
func (h *LicenseHandler) Certificate(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.uc.Certificate(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="certificado-%s.pdf"`, id))
	return c.Send(out)
}

// Transactions godoc
// @Summary      Ventas registradas de una licencia
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la licencia"
// @Success      200  {array}  dto.TransactionResponse
// @Router       /api/licenses/{id}/transactions [get]
func (h *LicenseHandler) Transactions(c *fiber.Ctx) error {
	list, err := h.sales.ListByLicense(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.NewTransactionResponse(t))
	}
	return c.JSON(out)
}

// Sweep godoc
// @Summary      Persistir el estado calculado de las licencias desfasadas
// @Tags         licenses
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SweepResponse
// @Router       /api/licenses/sweep [post]
func (h *LicenseHandler) Sweep(c *fiber.Ctx) error {
	res, err := h.uc.Sweep(c.UserContext(), h.nowFn())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SweepResponse{Scanned: res.Scanned, Updated: res.Updated})
}
