package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// RechargeRequest recarga de créditos.
type RechargeRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Description string          `json:"description" validate:"max=500"`
}

// SpendRequest consumo de créditos.
type SpendRequest struct {
	Amount            decimal.Decimal `json:"amount" swaggertype:"string"`
	RelatedEntityType string          `json:"related_entity_type" validate:"omitempty,max=50"`
	RelatedEntityID   string          `json:"related_entity_id" validate:"omitempty,max=100"`
	Description       string          `json:"description" validate:"max=500"`
}

// TransferRequest transferencia desde la billetera de la ruta hacia otra empresa.
type TransferRequest struct {
	ToCompanyID string          `json:"to_company_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Description string          `json:"description" validate:"max=500"`
}

// WalletResponse saldo y acumulados.
type WalletResponse struct {
	CompanyID           string          `json:"company_id"`
	Balance             decimal.Decimal `json:"balance" swaggertype:"string"`
	TotalRecharged      decimal.Decimal `json:"total_recharged" swaggertype:"string"`
	TotalSpent          decimal.Decimal `json:"total_spent" swaggertype:"string"`
	TotalTransferredIn  decimal.Decimal `json:"total_transferred_in" swaggertype:"string"`
	TotalTransferredOut decimal.Decimal `json:"total_transferred_out" swaggertype:"string"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewWalletResponse arma la respuesta de una billetera.
func NewWalletResponse(w *entity.CompanyWallet) WalletResponse {
	return WalletResponse{
		CompanyID:           w.CompanyID,
		Balance:             w.Balance,
		TotalRecharged:      w.TotalRecharged,
		TotalSpent:          w.TotalSpent,
		TotalTransferredIn:  w.TotalTransferredIn,
		TotalTransferredOut: w.TotalTransferredOut,
		UpdatedAt:           w.UpdatedAt,
	}
}

// WalletTransactionResponse fila del libro.
type WalletTransactionResponse struct {
	ID                    string          `json:"id"`
	CompanyID             string          `json:"company_id"`
	Type                  string          `json:"type"`
	Amount                decimal.Decimal `json:"amount" swaggertype:"string"`
	BalanceBefore         decimal.Decimal `json:"balance_before" swaggertype:"string"`
	BalanceAfter          decimal.Decimal `json:"balance_after" swaggertype:"string"`
	CounterpartyCompanyID *string         `json:"counterparty_company_id,omitempty"`
	CorrelationID         *string         `json:"correlation_id,omitempty"`
	RelatedEntityType     string          `json:"related_entity_type,omitempty"`
	RelatedEntityID       string          `json:"related_entity_id,omitempty"`
	Description           string          `json:"description,omitempty"`
	CreatedBy             string          `json:"created_by"`
	CreatedAt             time.Time       `json:"created_at"`
}

// NewWalletTransactionResponse arma la respuesta de una fila del libro.
func NewWalletTransactionResponse(r *entity.WalletTransaction) WalletTransactionResponse {
	return WalletTransactionResponse{
		ID:                    r.ID,
		CompanyID:             r.CompanyID,
		Type:                  r.Type,
		Amount:                r.Amount,
		BalanceBefore:         r.BalanceBefore,
		BalanceAfter:          r.BalanceAfter,
		CounterpartyCompanyID: r.CounterpartyCompanyID,
		CorrelationID:         r.CorrelationID,
		RelatedEntityType:     r.RelatedEntityType,
		RelatedEntityID:       r.RelatedEntityID,
		Description:           r.Description,
		CreatedBy:             r.CreatedBy,
		CreatedAt:             r.CreatedAt,
	}
}

// TransferResponse par de filas de una transferencia.
type TransferResponse struct {
	CorrelationID string                    `json:"correlation_id"`
	Out           WalletTransactionResponse `json:"out"`
	In            WalletTransactionResponse `json:"in"`
}

// LedgerListResponse página del libro.
type LedgerListResponse struct {
	Items []WalletTransactionResponse `json:"items"`
	Page  PageResponse                `json:"page"`
}

// ReconcileResponse comparación saldo cacheado vs libro.
type ReconcileResponse struct {
	CompanyID     string          `json:"company_id"`
	CachedBalance decimal.Decimal `json:"cached_balance" swaggertype:"string"`
	LedgerBalance decimal.Decimal `json:"ledger_balance" swaggertype:"string"`
	TotalsBalance decimal.Decimal `json:"totals_balance" swaggertype:"string"`
	Entries       int             `json:"entries"`
	ChainOK       bool            `json:"chain_ok"`
	BrokenAt      int             `json:"broken_at"`
	Consistent    bool            `json:"consistent"`
}
