package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medios de pago de una venta.
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWallet       = "wallet"
)

// Estados de pago.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Transaction representa la venta (o renovación) de una licencia.
type Transaction struct {
	ID                  string
	LicenseID           string
	Amount              decimal.Decimal
	Discount            decimal.Decimal
	FinalAmount         decimal.Decimal // Amount - Discount
	PaymentMethod       string
	PaymentStatus       string
	CreditsConsumed     *decimal.Decimal // solo cuando se paga con billetera
	WalletTransactionID *string
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
