package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Licencias-api/db"
	"github.com/jhoicas/Licencias-api/internal/application/billing"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/usecase"
	"github.com/jhoicas/Licencias-api/internal/application/wallet"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Licencias-api/pkg/config"
	"github.com/jhoicas/Licencias-api/pkg/logger"
)

// txRunner reúne los runners transaccionales que piden los casos de uso.
type txRunner interface {
	wallet.TxRunner
	license.TxRunner
	billing.SalesTxRunner
	usecase.DeviceTxRunner
}

// storage repositorios de la aplicación sobre PostgreSQL o en memoria.
type storage struct {
	companies    repository.CompanyRepository
	users        repository.UserRepository
	clients      repository.ClientRepository
	products     repository.ProductRepository
	licenses     repository.LicenseRepository
	transactions repository.TransactionRepository
	wallets      repository.WalletRepository
	ledger       repository.WalletLedgerRepository
	devices      repository.DeviceRegistrationRepository
	audit        repository.AuditRepository
	tx           txRunner
	close        func()
}

func openStorage(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			companies:    s.Companies(),
			users:        s.Users(),
			clients:      s.Clients(),
			products:     s.Products(),
			licenses:     s.Licenses(),
			transactions: s.Transactions(),
			wallets:      s.Wallets(),
			ledger:       s.Ledger(),
			devices:      s.Devices(),
			audit:        s.Audit(),
			tx:           memory.NewTxRunner(s),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, db.Migrations()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return postgresStorage(pool), nil
}

func postgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		companies:    postgres.NewCompanyRepository(pool),
		users:        postgres.NewUserRepository(pool),
		clients:      postgres.NewClientRepository(pool),
		products:     postgres.NewProductRepository(pool),
		licenses:     postgres.NewLicenseRepository(pool),
		transactions: postgres.NewTransactionRepository(pool),
		wallets:      postgres.NewWalletRepository(pool),
		ledger:       postgres.NewLedgerRepository(pool),
		devices:      postgres.NewDeviceRepository(pool),
		audit:        postgres.NewAuditRepository(pool),
		tx:           postgres.NewTxRunner(pool),
		close:        pool.Close,
	}
}
