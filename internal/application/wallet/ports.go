package wallet

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback: ni saldo ni libro cambian.
type TxRunner interface {
	RunLedger(ctx context.Context, fn func(
		wallets repository.WalletRepository,
		ledger repository.WalletLedgerRepository,
	) error) error
}

// Authorizer alcance del actor sobre las empresas.
type Authorizer interface {
	RequireSuperAdmin(actor entity.Actor) error
	CanAccessCompany(ctx context.Context, actor entity.Actor, companyID string) error
}

// StatementRenderer genera el extracto PDF de la billetera.
type StatementRenderer interface {
	RenderStatement(st *Statement) ([]byte, error)
}
