package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
)

// TransactionHandler ventas de licencias.
type TransactionHandler struct {
	uc *billing.SalesUseCase
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(uc *billing.SalesUseCase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar venta de una licencia
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body  body  dto.CreateTransactionRequest  true  "Licencia, montos y medio de pago"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransactionRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	t, err := h.uc.RecordSale(c.UserContext(), ActorFrom(c), billing.SaleInput{
		LicenseID:     in.LicenseID,
		Amount:        in.Amount,
		Discount:      in.Discount,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: in.PaymentStatus,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(t))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.uc.Get(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewTransactionResponse(t))
}
