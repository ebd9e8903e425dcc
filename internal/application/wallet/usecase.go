package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
	domwallet "github.com/jhoicas/Licencias-api/internal/domain/wallet"
)

// LedgerUseCase registra recargas, consumos y transferencias de créditos.
// Cada operación bloquea las billeteras involucradas (SELECT FOR UPDATE), actualiza el
// saldo cacheado y agrega las filas del libro en la misma transacción.
type LedgerUseCase struct {
	txRunner   TxRunner
	wallets    repository.WalletRepository
	ledger     repository.WalletLedgerRepository
	authorizer Authorizer
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	renderer   StatementRenderer
	log        zerolog.Logger
	nowFn      func() time.Time
}

// NewLedgerUseCase construye el caso de uso. wallets y ledger son los repositorios fuera de tx (lecturas).
func NewLedgerUseCase(
	txRunner TxRunner,
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
	authorizer Authorizer,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
) *LedgerUseCase {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &LedgerUseCase{
		txRunner:   txRunner,
		wallets:    wallets,
		ledger:     ledger,
		authorizer: authorizer,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		nowFn:      time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *LedgerUseCase) WithClock(fn func() time.Time) *LedgerUseCase {
	uc.nowFn = fn
	return uc
}

// WithStatementRenderer habilita el extracto en PDF.
func (uc *LedgerUseCase) WithStatementRenderer(r StatementRenderer) *LedgerUseCase {
	uc.renderer = r
	return uc
}

// RechargeInput entrada de una recarga (dinero externo que entra a la plataforma).
type RechargeInput struct {
	CompanyID   string
	Amount      decimal.Decimal
	Description string
}

// SpendInput entrada de un consumo de créditos.
type SpendInput struct {
	CompanyID         string
	Amount            decimal.Decimal
	RelatedEntityType string
	RelatedEntityID   string
	Description       string
}

// TransferInput entrada de una transferencia entre empresas.
type TransferInput struct {
	FromCompanyID string
	ToCompanyID   string
	Amount        decimal.Decimal
	Description   string
}

// TransferResult par de filas enlazadas por CorrelationID.
type TransferResult struct {
	CorrelationID string
	Out           *entity.WalletTransaction
	In            *entity.WalletTransaction
}

// Recharge acredita amount a la billetera de la empresa. Solo el superadmin recarga.
func (uc *LedgerUseCase) Recharge(ctx context.Context, actor entity.Actor, in RechargeInput) (*entity.WalletTransaction, error) {
	if err := domwallet.ValidateAmount(in.Amount); err != nil {
		uc.observe(entity.WalletTxRecharge, err, in.Amount)
		return nil, err
	}
	if err := uc.authorizer.RequireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, in.CompanyID); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	var row *entity.WalletTransaction
	err := uc.txRunner.RunLedger(ctx, func(wallets repository.WalletRepository, ledger repository.WalletLedgerRepository) error {
		var err error
		row, err = uc.apply(ctx, wallets, ledger, in.CompanyID, entity.WalletTxRecharge, in.Amount, now, func(r *entity.WalletTransaction) {
			r.Description = strings.TrimSpace(in.Description)
			r.CreatedBy = actor.UserID
		})
		return err
	})
	uc.observe(entity.WalletTxRecharge, err, in.Amount)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, row)
	return row, nil
}

// Spend debita amount de la billetera. Falla con domain.ErrInsufficientFunds sin escribir nada.
func (uc *LedgerUseCase) Spend(ctx context.Context, actor entity.Actor, in SpendInput) (*entity.WalletTransaction, error) {
	if err := domwallet.ValidateAmount(in.Amount); err != nil {
		uc.observe(entity.WalletTxSpend, err, in.Amount)
		return nil, err
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, in.CompanyID); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	var row *entity.WalletTransaction
	err := uc.txRunner.RunLedger(ctx, func(wallets repository.WalletRepository, ledger repository.WalletLedgerRepository) error {
		var err error
		row, err = uc.SpendInTx(ctx, wallets, ledger, actor, in, now)
		return err
	})
	uc.observe(entity.WalletTxSpend, err, in.Amount)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, row)
	return row, nil
}

// SpendInTx ejecuta un consumo con los repositorios de una transacción abierta por el llamador
// (p. ej. la venta de una licencia pagada con créditos). No verifica alcance.
func (uc *LedgerUseCase) SpendInTx(
	ctx context.Context,
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
	actor entity.Actor,
	in SpendInput,
	now time.Time,
) (*entity.WalletTransaction, error) {
	return uc.apply(ctx, wallets, ledger, in.CompanyID, entity.WalletTxSpend, in.Amount, now, func(r *entity.WalletTransaction) {
		r.RelatedEntityType = in.RelatedEntityType
		r.RelatedEntityID = in.RelatedEntityID
		r.Description = strings.TrimSpace(in.Description)
		r.CreatedBy = actor.UserID
	})
}

// Transfer mueve amount de una empresa a otra: dos filas (transfer_out, transfer_in) con el
// mismo CorrelationID, confirmadas juntas o ninguna.
func (uc *LedgerUseCase) Transfer(ctx context.Context, actor entity.Actor, in TransferInput) (*TransferResult, error) {
	if err := domwallet.ValidateAmount(in.Amount); err != nil {
		uc.observe(entity.WalletTxTransferOut, err, in.Amount)
		return nil, err
	}
	if in.FromCompanyID == "" || in.ToCompanyID == "" || in.FromCompanyID == in.ToCompanyID {
		uc.observe(entity.WalletTxTransferOut, domain.ErrValidation, in.Amount)
		return nil, domain.ErrValidation
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, in.FromCompanyID); err != nil {
		return nil, err
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, in.ToCompanyID); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	correlationID := uuid.New().String()
	desc := strings.TrimSpace(in.Description)
	res := &TransferResult{CorrelationID: correlationID}

	err := uc.txRunner.RunLedger(ctx, func(wallets repository.WalletRepository, ledger repository.WalletLedgerRepository) error {
		// Orden de bloqueo fijo (por ID) para que dos transferencias cruzadas no se bloqueen mutuamente.
		ids := []string{in.FromCompanyID, in.ToCompanyID}
		sort.Strings(ids)
		locked := make(map[string]*entity.CompanyWallet, 2)
		for _, id := range ids {
			w, err := wallets.GetOrCreateForUpdate(ctx, id, now)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		from, to := locked[in.FromCompanyID], locked[in.ToCompanyID]
		fromBefore, toBefore := from.Balance, to.Balance

		out, err := domwallet.Apply(from, entity.WalletTxTransferOut, in.Amount, now)
		if err != nil {
			return err
		}
		inRow, err := domwallet.Apply(to, entity.WalletTxTransferIn, in.Amount, now)
		if err != nil {
			return err
		}
		toID, fromID := in.ToCompanyID, in.FromCompanyID
		out.ID, inRow.ID = uuid.New().String(), uuid.New().String()
		out.CounterpartyCompanyID, inRow.CounterpartyCompanyID = &toID, &fromID
		out.CorrelationID, inRow.CorrelationID = &correlationID, &correlationID
		out.Description, inRow.Description = desc, desc
		out.CreatedBy, inRow.CreatedBy = actor.UserID, actor.UserID

		if err := wallets.UpdateBalance(ctx, from, fromBefore); err != nil {
			return err
		}
		if err := wallets.UpdateBalance(ctx, to, toBefore); err != nil {
			return err
		}
		if err := ledger.Append(ctx, out); err != nil {
			return err
		}
		if err := ledger.Append(ctx, inRow); err != nil {
			return err
		}
		res.Out, res.In = out, inRow
		return nil
	})
	uc.observe(entity.WalletTxTransferOut, err, in.Amount)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, res.Out)
	uc.publish(ctx, res.In)
	return res, nil
}

// apply bloquea la billetera, aplica el movimiento y persiste saldo + fila del libro.
func (uc *LedgerUseCase) apply(
	ctx context.Context,
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
	companyID, txType string,
	amount decimal.Decimal,
	now time.Time,
	decorate func(*entity.WalletTransaction),
) (*entity.WalletTransaction, error) {
	w, err := wallets.GetOrCreateForUpdate(ctx, companyID, now)
	if err != nil {
		return nil, err
	}
	before := w.Balance
	row, err := domwallet.Apply(w, txType, amount, now)
	if err != nil {
		return nil, err
	}
	row.ID = uuid.New().String()
	if decorate != nil {
		decorate(row)
	}
	if err := wallets.UpdateBalance(ctx, w, before); err != nil {
		return nil, err
	}
	if err := ledger.Append(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// GetWallet devuelve la billetera; si la empresa nunca operó, una billetera en cero.
func (uc *LedgerUseCase) GetWallet(ctx context.Context, actor entity.Actor, companyID string) (*entity.CompanyWallet, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}
	w, err := uc.wallets.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = &entity.CompanyWallet{CompanyID: companyID}
	}
	return w, nil
}

// ListLedger lista movimientos de la empresa, más recientes primero.
func (uc *LedgerUseCase) ListLedger(ctx context.Context, actor entity.Actor, filter repository.LedgerFilter) ([]*entity.WalletTransaction, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, filter.CompanyID); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.ErrValidation
	}
	return uc.ledger.List(ctx, filter)
}

// ReconcileReport resultado de comparar el saldo cacheado con el libro.
type ReconcileReport struct {
	CompanyID     string
	CachedBalance decimal.Decimal
	LedgerBalance decimal.Decimal
	TotalsBalance decimal.Decimal
	Entries       int
	ChainOK       bool
	BrokenAt      int
	Consistent    bool
}

// Reconcile recalcula el saldo desde el libro y verifica la cadena before/after.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, actor entity.Actor, companyID string) (*ReconcileReport, error) {
	w, err := uc.GetWallet(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	rows, err := uc.ledger.ListChronological(ctx, companyID)
	if err != nil {
		return nil, err
	}
	brokenAt, ok := domwallet.VerifyChain(rows)
	rep := &ReconcileReport{
		CompanyID:     companyID,
		CachedBalance: w.Balance,
		LedgerBalance: domwallet.LedgerSum(rows),
		TotalsBalance: domwallet.TotalsBalance(w),
		Entries:       len(rows),
		ChainOK:       ok,
		BrokenAt:      brokenAt,
	}
	if ok && len(rows) > 0 && !rows[len(rows)-1].BalanceAfter.Equal(w.Balance) {
		rep.ChainOK = false
		rep.BrokenAt = len(rows) - 1
	}
	rep.Consistent = rep.ChainOK &&
		rep.CachedBalance.Equal(rep.LedgerBalance) &&
		rep.CachedBalance.Equal(rep.TotalsBalance)
	if !rep.Consistent {
		uc.log.Warn().
			Str("company_id", companyID).
			Str("cached", rep.CachedBalance.String()).
			Str("ledger", rep.LedgerBalance.String()).
			Int("broken_at", rep.BrokenAt).
			Msg("billetera inconsistente con su libro")
	}
	return rep, nil
}

// Statement resumen de un periodo para el extracto.
type Statement struct {
	Wallet  *entity.CompanyWallet
	From    time.Time
	To      time.Time
	Totals  map[string]decimal.Decimal
	Entries []*entity.WalletTransaction
}

// Statement arma el extracto del periodo [from, to].
func (uc *LedgerUseCase) Statement(ctx context.Context, actor entity.Actor, companyID string, from, to time.Time) (*Statement, error) {
	if from.After(to) {
		return nil, domain.ErrValidation
	}
	w, err := uc.GetWallet(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	totals, err := uc.ledger.SumByType(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledger.List(ctx, repository.LedgerFilter{CompanyID: companyID, From: &from, To: &to, Limit: 1000})
	if err != nil {
		return nil, err
	}
	return &Statement{Wallet: w, From: from, To: to, Totals: totals, Entries: entries}, nil
}

// StatementPDF arma el extracto del periodo y lo devuelve en PDF.
func (uc *LedgerUseCase) StatementPDF(ctx context.Context, actor entity.Actor, companyID string, from, to time.Time) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("generador de extractos no configurado")
	}
	st, err := uc.Statement(ctx, actor, companyID, from, to)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderStatement(st)
}

func (uc *LedgerUseCase) observe(txType string, err error, amount decimal.Decimal) {
	uc.metrics.ObserveWalletOperation(txType, domain.ErrorCode(err), amount)
}

func (uc *LedgerUseCase) publish(ctx context.Context, row *entity.WalletTransaction) {
	if row == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, ports.SubjectWalletLedger+"."+row.Type, row); err != nil {
		uc.log.Warn().Err(err).Str("wallet_tx_id", row.ID).Msg("no se pudo publicar movimiento de billetera")
	}
}
