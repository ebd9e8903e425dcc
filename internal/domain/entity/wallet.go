package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de la billetera.
const (
	WalletTxRecharge    = "recharge"
	WalletTxSpend       = "spend"
	WalletTxTransferIn  = "transfer_in"
	WalletTxTransferOut = "transfer_out"
)

// CompanyWallet saldo de créditos de una empresa. Balance es un caché del libro.
type CompanyWallet struct {
	CompanyID           string
	Balance             decimal.Decimal
	TotalRecharged      decimal.Decimal
	TotalSpent          decimal.Decimal
	TotalTransferredIn  decimal.Decimal
	TotalTransferredOut decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// WalletTransaction fila inmutable del libro. Amount es siempre positivo; el signo lo da Type.
type WalletTransaction struct {
	ID                    string
	CompanyID             string
	Type                  string
	Amount                decimal.Decimal
	BalanceBefore         decimal.Decimal
	BalanceAfter          decimal.Decimal
	CounterpartyCompanyID *string
	CorrelationID         *string
	RelatedEntityType     string
	RelatedEntityID       string
	Description           string
	CreatedBy             string
	CreatedAt             time.Time
}
