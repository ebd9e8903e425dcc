package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// SalesTxRunner ejecuta una función dentro de una transacción que incluye licencias, ventas y billetera.
type SalesTxRunner interface {
	RunSale(ctx context.Context, fn func(
		licenses repository.LicenseRepository,
		transactions repository.TransactionRepository,
		wallets repository.WalletRepository,
		ledger repository.WalletLedgerRepository,
	) error) error
}

// WalletSpender integra la venta con la billetera.
// SpendInTx debita usando los repositorios del caller (misma transacción); si retorna error
// (ej: ErrInsufficientFunds) el caller hace rollback y la venta no queda registrada.
type WalletSpender interface {
	SpendInTx(
		ctx context.Context,
		wallets repository.WalletRepository,
		ledger repository.WalletLedgerRepository,
		actor entity.Actor,
		in wallet.SpendInput,
		now time.Time,
	) (*entity.WalletTransaction, error)
}

// Authorizer alcance del actor sobre la empresa dueña del cliente.
type Authorizer interface {
	CanAccessOwner(ctx context.Context, actor entity.Actor, ownerID *string) error
}
