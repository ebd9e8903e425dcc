package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// WalletRepository puerto de persistencia del saldo cacheado de cada empresa.
type WalletRepository interface {
	// GetByCompanyID devuelve nil si la empresa aún no tiene billetera.
	GetByCompanyID(ctx context.Context, companyID string) (*entity.CompanyWallet, error)
	// GetOrCreateForUpdate crea la billetera en cero si no existe y bloquea la fila (SELECT FOR UPDATE).
	GetOrCreateForUpdate(ctx context.Context, companyID string, now time.Time) (*entity.CompanyWallet, error)
	// UpdateBalance persiste saldo y acumulados solo si el saldo almacenado sigue siendo expectedBefore.
	// Devuelve domain.ErrConflict si otra transacción lo modificó.
	UpdateBalance(ctx context.Context, wallet *entity.CompanyWallet, expectedBefore decimal.Decimal) error
}

// LedgerFilter filtros del listado del libro.
type LedgerFilter struct {
	CompanyID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// WalletLedgerRepository puerto del libro de movimientos. Solo inserción: no hay Update ni Delete.
type WalletLedgerRepository interface {
	Append(ctx context.Context, row *entity.WalletTransaction) error
	// List filas más recientes primero.
	List(ctx context.Context, filter LedgerFilter) ([]*entity.WalletTransaction, error)
	// ListChronological todas las filas de la empresa en orden de inserción.
	ListChronological(ctx context.Context, companyID string) ([]*entity.WalletTransaction, error)
	// SumByType suma los montos por tipo en [from, to].
	SumByType(ctx context.Context, companyID string, from, to time.Time) (map[string]decimal.Decimal, error)
}
