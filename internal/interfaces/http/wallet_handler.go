package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// WalletHandler billeteras de créditos y su libro.
type WalletHandler struct {
	uc    *wallet.LedgerUseCase
	nowFn func() time.Time
}

// NewWalletHandler construye el handler.
func NewWalletHandler(uc *wallet.LedgerUseCase) *WalletHandler {
	return &WalletHandler{uc: uc, nowFn: time.Now}
}

// Get godoc
// @Summary      Saldo y acumulados de la billetera
// @Tags         wallets
// @Security     Bearer
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Success      200        {object}  dto.WalletResponse
// @Router       /api/wallets/{companyId} [get]
func (h *WalletHandler) Get(c *fiber.Ctx) error {
	w, err := h.uc.GetWallet(c.UserContext(), ActorFrom(c), c.Params("companyId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewWalletResponse(w))
}

// Ledger godoc
// @Summary      Movimientos del libro (más recientes primero)
// @Tags         wallets
// @Security     Bearer
// @Produce      json
// @Param        companyId  path   string  true   "ID de la empresa"
// @Param        from       query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to         query  string  false  "Hasta (RFC3339 o AAAA-MM-DD)"
// @Param        limit      query  int     false  "Límite"   default(20)
// @Param        offset     query  int     false  "Offset"   default(0)
// @Success      200        {object}  dto.LedgerListResponse
// @Router       /api/wallets/{companyId}/ledger [get]
func (h *WalletHandler) Ledger(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return writeError(c, err)
	}
	limit, offset := pageParams(c)
	rows, err := h.uc.ListLedger(c.UserContext(), ActorFrom(c), repository.LedgerFilter{
		CompanyID: c.Params("companyId"),
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.WalletTransactionResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.NewWalletTransactionResponse(r))
	}
	return c.JSON(dto.LedgerListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}})
}

// Reconcile godoc
// @Summary      Comparar el saldo con la suma del libro
// @Tags         wallets
// @Security     Bearer
// @Produce      json
// @Param        companyId  path  string  true  "ID de la empresa"
// @Success      200        {object}  dto.ReconcileResponse
// @Router       /api/wallets/{companyId}/reconcile [get]
func (h *WalletHandler) Reconcile(c *fiber.Ctx) error {
	rep, err := h.uc.Reconcile(c.UserContext(), ActorFrom(c), c.Params("companyId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		CompanyID:     rep.CompanyID,
		CachedBalance: rep.CachedBalance,
		LedgerBalance: rep.LedgerBalance,
		TotalsBalance: rep.TotalsBalance,
		Entries:       rep.Entries,
		ChainOK:       rep.ChainOK,
		BrokenAt:      rep.BrokenAt,
		Consistent:    rep.Consistent,
	})
}

// Statement godoc
// @Summary      Extracto PDF del periodo (por defecto, el mes en curso)
// @Tags         wallets
// @Security     Bearer
// @Produce      application/pdf
// @Param        companyId  path   string  true   "ID de la empresa"
// @Param        from       query  string  false  "Desde"
// @Param        to         query  string  false  "Hasta"
// @Success      200        {file}  file
// @Router       /api/wallets/{companyId}/statement [get]
func (h *WalletHandler) Statement(c *fiber.Ctx) error {
	now := h.nowFn().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now
	if v, err := queryTime(c, "from"); err != nil {
		return writeError(c, err)
	} else if v != nil {
		from = *v
	}
	if v, err := queryTime(c, "to"); err != nil {
		return writeError(c, err)
	} else if v != nil {
		to = *v
	}
	companyID := c.Params("companyId")
	out, err := h.uc.StatementPDF(c.UserContext(), ActorFrom(c), companyID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="extracto-%s-%s.pdf"`, companyID, from.Format("200601")))
	return c.Send(out)
}

// Recharge godoc
// @Summary      Recargar créditos (superadmin)
// @Tags         wallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        companyId        path    string  true   "ID de la empresa"
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body             body    dto.RechargeRequest  true  "Monto"
// @Success      201  {object}  dto.WalletTransactionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/wallets/{companyId}/recharge [post]
func (h *WalletHandler) Recharge(c *fiber.Ctx) error {
	var in dto.RechargeRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	row, err := h.uc.Recharge(c.UserContext(), ActorFrom(c), wallet.RechargeInput{
		CompanyID:   c.Params("companyId"),
		Amount:      in.Amount,
		Description: in.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewWalletTransactionResponse(row))
}

// Spend godoc
// @Summary      Consumir créditos
// @Tags         wallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        companyId        path    string  true   "ID de la empresa"
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body             body    dto.SpendRequest  true  "Monto y entidad relacionada"
// @Success      201  {object}  dto.WalletTransactionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/wallets/{companyId}/spend [post]
func (h *WalletHandler) Spend(c *fiber.Ctx) error {
	var in dto.SpendRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	row, err := h.uc.Spend(c.UserContext(), ActorFrom(c), wallet.SpendInput{
		CompanyID:         c.Params("companyId"),
		Amount:            in.Amount,
		RelatedEntityType: in.RelatedEntityType,
		RelatedEntityID:   in.RelatedEntityID,
		Description:       in.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewWalletTransactionResponse(row))
}

// Transfer godoc
// @Summary      Transferir créditos a otra empresa
// @Tags         wallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        companyId        path    string  true   "Empresa origen"
// @Param        Idempotency-Key  header  string  false  "Llave de idempotencia"
// @Param        body             body    dto.TransferRequest  true  "Destino y monto"
// @Success      201  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/wallets/{companyId}/transfer [post]
func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Transfer(c.UserContext(), ActorFrom(c), wallet.TransferInput{
		FromCompanyID: c.Params("companyId"),
		ToCompanyID:   in.ToCompanyID,
		Amount:        in.Amount,
		Description:   in.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		CorrelationID: res.CorrelationID,
		Out:           dto.NewWalletTransactionResponse(res.Out),
		In:            dto.NewWalletTransactionResponse(res.In),
	})
}

// queryTime acepta RFC3339 o AAAA-MM-DD (inicio del día UTC). Vacío devuelve nil.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339 o AAAA-MM-DD", domain.ErrValidation, name)
	}
	return &t, nil
}
