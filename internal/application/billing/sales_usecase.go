package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
	domwallet "github.com/jhoicas/Licencias-api/internal/domain/wallet"
)

// RelatedEntityTransaction tipo de entidad relacionada en las filas del libro generadas por una venta.
const RelatedEntityTransaction = "transaction"

// SalesUseCase registra la venta de una licencia. Con medio de pago wallet, el débito de
// créditos y la venta se confirman en la misma transacción.
type SalesUseCase struct {
	txRunner     SalesTxRunner
	spender      WalletSpender
	licenses     repository.LicenseRepository
	clients      repository.ClientRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	authorizer   Authorizer
	log          zerolog.Logger
	nowFn        func() time.Time
}

// NewSalesUseCase construye el caso de uso.
func NewSalesUseCase(
	txRunner SalesTxRunner,
	spender WalletSpender,
	licenses repository.LicenseRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	transactions repository.TransactionRepository,
	authorizer Authorizer,
	log zerolog.Logger,
) *SalesUseCase {
	return &SalesUseCase{
		txRunner:     txRunner,
		spender:      spender,
		licenses:     licenses,
		clients:      clients,
		products:     products,
		transactions: transactions,
		authorizer:   authorizer,
		log:          log,
		nowFn:        time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *SalesUseCase) WithClock(fn func() time.Time) *SalesUseCase {
	uc.nowFn = fn
	return uc
}

// SaleInput datos de la venta. Amount y Discount nil toman el precio y el descuento del producto.
type SaleInput struct {
	LicenseID     string
	Amount        *decimal.Decimal
	Discount      *decimal.Decimal
	PaymentMethod string
	PaymentStatus string
}

func validPaymentMethod(m string) bool {
	switch m {
	case entity.PaymentMethodCash, entity.PaymentMethodCard, entity.PaymentMethodBankTransfer, entity.PaymentMethodWallet:
		return true
	}
	return false
}

func validPaymentStatus(s string) bool {
	switch s {
	case entity.PaymentStatusPending, entity.PaymentStatusPaid, entity.PaymentStatusFailed, entity.PaymentStatusRefunded:
		return true
	}
	return false
}

// validMoney monto no negativo con a lo sumo dos decimales.
func validMoney(v decimal.Decimal) bool {
	return !v.IsNegative() && v.Equal(v.Round(domwallet.MoneyScale))
}

// RecordSale registra la venta. final = amount - discount.
// Pagada con wallet: debita el monto final de la empresa dueña del cliente y queda en estado paid.
func (uc *SalesUseCase) RecordSale(ctx context.Context, actor entity.Actor, in SaleInput) (*entity.Transaction, error) {
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrValidation, in.PaymentMethod)
	}
	l, err := uc.licenses.GetByID(ctx, in.LicenseID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("licencia: %w", domain.ErrNotFound)
	}
	client, err := uc.clients.GetByID(ctx, l.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("cliente: %w", domain.ErrNotFound)
	}
	if err := uc.authorizer.CanAccessOwner(ctx, actor, client.CompanyID); err != nil {
		return nil, err
	}
	product, err := uc.products.GetByID(ctx, l.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}

	amount, discount := product.Price, product.Discount
	if in.Amount != nil {
		amount = *in.Amount
	}
	if in.Discount != nil {
		discount = *in.Discount
	}
	if !validMoney(amount) || !validMoney(discount) {
		return nil, domain.ErrInvalidAmount
	}
	if discount.GreaterThan(amount) {
		return nil, fmt.Errorf("%w: el descuento supera el monto", domain.ErrInvalidAmount)
	}
	final := amount.Sub(discount)

	status := in.PaymentStatus
	if in.PaymentMethod == entity.PaymentMethodWallet {
		if client.CompanyID == nil {
			return nil, fmt.Errorf("%w: el cliente no pertenece a ninguna empresa con billetera", domain.ErrValidation)
		}
		status = entity.PaymentStatusPaid
	} else if status == "" {
		status = entity.PaymentStatusPending
	}
	if !validPaymentStatus(status) {
		return nil, fmt.Errorf("%w: estado de pago %q", domain.ErrValidation, status)
	}

	now := uc.nowFn()
	sale := &entity.Transaction{
		ID:            uuid.New().String(),
		LicenseID:     l.ID,
		Amount:        amount,
		Discount:      discount,
		FinalAmount:   final,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: status,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.txRunner.RunSale(ctx, func(
		licenses repository.LicenseRepository,
		transactions repository.TransactionRepository,
		wallets repository.WalletRepository,
		ledger repository.WalletLedgerRepository,
	) error {
		// La licencia se bloquea para serializar ventas concurrentes sobre ella.
		locked, err := licenses.GetByIDForUpdate(ctx, l.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if sale.PaymentMethod == entity.PaymentMethodWallet {
			credits := final
			sale.CreditsConsumed = &credits
			if final.IsPositive() {
				row, err := uc.spender.SpendInTx(ctx, wallets, ledger, actor, wallet.SpendInput{
					CompanyID:         *client.CompanyID,
					Amount:            final,
					RelatedEntityType: RelatedEntityTransaction,
					RelatedEntityID:   sale.ID,
					Description:       fmt.Sprintf("Licencia %s", locked.ActivationKey),
				}, now)
				if err != nil {
					return err
				}
				sale.WalletTransactionID = &row.ID
			}
		}
		return transactions.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("transaction_id", sale.ID).
		Str("license_id", sale.LicenseID).
		Str("method", sale.PaymentMethod).
		Str("final_amount", sale.FinalAmount.StringFixed(domwallet.MoneyScale)).
		Msg("venta registrada")
	return sale, nil
}

// Get devuelve una venta visible para el actor.
func (uc *SalesUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Transaction, error) {
	t, err := uc.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.authorizeLicense(ctx, actor, t.LicenseID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByLicense ventas de una licencia, la más antigua primero.
func (uc *SalesUseCase) ListByLicense(ctx context.Context, actor entity.Actor, licenseID string) ([]*entity.Transaction, error) {
	if err := uc.authorizeLicense(ctx, actor, licenseID); err != nil {
		return nil, err
	}
	return uc.transactions.ListByLicense(ctx, licenseID)
}

func (uc *SalesUseCase) authorizeLicense(ctx context.Context, actor entity.Actor, licenseID string) error {
	l, err := uc.licenses.GetByID(ctx, licenseID)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.ErrNotFound
	}
	client, err := uc.clients.GetByID(ctx, l.ClientID)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrNotFound
	}
	return uc.authorizer.CanAccessOwner(ctx, actor, client.CompanyID)
}
