package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// Ensure TxRunner implementa los runners de cada caso de uso.
var (
	_ wallet.TxRunner        = (*TxRunner)(nil)
	_ license.TxRunner       = (*TxRunner)(nil)
	_ billing.SalesTxRunner  = (*TxRunner)(nil)
	_ usecase.DeviceTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// run inicia una transacción, ejecuta fn con la tx y hace Commit o Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunLedger transacción con billeteras y libro (recargas, consumos, transferencias).
func (r *TxRunner) RunLedger(ctx context.Context, fn func(
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewWalletRepository(tx), NewLedgerRepository(tx))
	})
}

// RunLicense transacción sobre licencias (activación, cambios de estado, barrido).
func (r *TxRunner) RunLicense(ctx context.Context, fn func(licenses repository.LicenseRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewLicenseRepository(tx))
	})
}

// RunSale transacción de venta: licencia, venta y, si se paga con billetera, el débito.
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	licenses repository.LicenseRepository,
	transactions repository.TransactionRepository,
	wallets repository.WalletRepository,
	ledger repository.WalletLedgerRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewLicenseRepository(tx), NewTransactionRepository(tx), NewWalletRepository(tx), NewLedgerRepository(tx))
	})
}

// RunDevices transacción de registro de equipos (cabecera + detalle).
func (r *TxRunner) RunDevices(ctx context.Context, fn func(devices repository.DeviceRegistrationRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewDeviceRepository(tx))
	})
}

// Pool pool subyacente, para construir repositorios fuera de transacción.
func (r *TxRunner) Pool() *pgxpool.Pool {
	return r.pool
}
