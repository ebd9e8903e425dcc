package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// CreateTransactionRequest registro de la venta de una licencia. amount/discount vacíos toman los del producto.
type CreateTransactionRequest struct {
	LicenseID     string           `json:"license_id" validate:"required,uuid"`
	Amount        *decimal.Decimal `json:"amount" swaggertype:"string"`
	Discount      *decimal.Decimal `json:"discount" swaggertype:"string"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=cash card bank_transfer wallet"`
	PaymentStatus string           `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
}

// TransactionResponse salida de una venta.
type TransactionResponse struct {
	ID                  string           `json:"id"`
	LicenseID           string           `json:"license_id"`
	Amount              decimal.Decimal  `json:"amount" swaggertype:"string"`
	Discount            decimal.Decimal  `json:"discount" swaggertype:"string"`
	FinalAmount         decimal.Decimal  `json:"final_amount" swaggertype:"string"`
	PaymentMethod       string           `json:"payment_method"`
	PaymentStatus       string           `json:"payment_status"`
	CreditsConsumed     *decimal.Decimal `json:"credits_consumed,omitempty" swaggertype:"string"`
	WalletTransactionID *string          `json:"wallet_transaction_id,omitempty"`
	CreatedBy           string           `json:"created_by"`
	CreatedAt           time.Time        `json:"created_at"`
}

// NewTransactionResponse arma la respuesta de una venta.
func NewTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  t.ID,
		LicenseID:           t.LicenseID,
		Amount:              t.Amount,
		Discount:            t.Discount,
		FinalAmount:         t.FinalAmount,
		PaymentMethod:       t.PaymentMethod,
		PaymentStatus:       t.PaymentStatus,
		CreditsConsumed:     t.CreditsConsumed,
		WalletTransactionID: t.WalletTransactionID,
		CreatedBy:           t.CreatedBy,
		CreatedAt:           t.CreatedAt,
	}
}
