// Package wallet implementa las reglas puras del libro de la billetera:
// validación de montos, signo de cada movimiento y aplicación sobre el saldo.
package wallet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// MoneyScale cantidad de decimales de los montos.
const MoneyScale = 2

var (
	// MaxAmount tope de un movimiento individual.
	MaxAmount = decimal.RequireFromString("999999999999.99")
	// MaxStored mayor valor que cabe en las columnas NUMERIC(18,2) de saldo y acumulados.
	MaxStored = decimal.RequireFromString("9999999999999999.99")
)

// ValidateAmount exige un monto positivo, no mayor que MaxAmount, con a lo sumo dos decimales.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: el monto supera %s", domain.ErrInvalidAmount, MaxAmount.StringFixed(MoneyScale))
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return domain.ErrInvalidAmount
	}
	return nil
}

// IsCredit informa si el tipo de movimiento suma al saldo.
func IsCredit(txType string) bool {
	return txType == entity.WalletTxRecharge || txType == entity.WalletTxTransferIn
}

// IsValidType informa si txType es un tipo de movimiento conocido.
func IsValidType(txType string) bool {
	switch txType {
	case entity.WalletTxRecharge, entity.WalletTxSpend, entity.WalletTxTransferIn, entity.WalletTxTransferOut:
		return true
	}
	return false
}

// Signed devuelve el monto con signo: positivo para recargas y entradas, negativo para gastos y salidas.
func Signed(txType string, amount decimal.Decimal) decimal.Decimal {
	if IsCredit(txType) {
		return amount
	}
	return amount.Neg()
}

// Apply aplica un movimiento sobre la billetera y devuelve la fila del libro correspondiente
// (sin ID ni metadatos, que completa el caso de uso). Si falla, la billetera no se modifica.
func Apply(w *entity.CompanyWallet, txType string, amount decimal.Decimal, now time.Time) (*entity.WalletTransaction, error) {
	if !IsValidType(txType) {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, txType)
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	before := w.Balance
	if !IsCredit(txType) && amount.GreaterThan(before) {
		return nil, domain.ErrInsufficientFunds
	}
	after := before.Add(Signed(txType, amount))

	var total *decimal.Decimal
	switch txType {
	case entity.WalletTxRecharge:
		total = &w.TotalRecharged
	case entity.WalletTxSpend:
		total = &w.TotalSpent
	case entity.WalletTxTransferIn:
		total = &w.TotalTransferredIn
	case entity.WalletTxTransferOut:
		total = &w.TotalTransferredOut
	}
	newTotal := total.Add(amount)
	if after.GreaterThan(MaxStored) || newTotal.GreaterThan(MaxStored) {
		return nil, fmt.Errorf("%w: el saldo de la billetera superaría %s", domain.ErrInvalidAmount, MaxStored.StringFixed(MoneyScale))
	}
	*total = newTotal
	w.Balance = after
	w.UpdatedAt = now

	return &entity.WalletTransaction{
		CompanyID:     w.CompanyID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     now,
	}, nil
}

// LedgerSum suma con signo las filas del libro.
func LedgerSum(rows []*entity.WalletTransaction) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(Signed(r.Type, r.Amount))
	}
	return sum
}

// TotalsBalance saldo que se deriva de los acumulados de la billetera.
func TotalsBalance(w *entity.CompanyWallet) decimal.Decimal {
	return w.TotalRecharged.Sub(w.TotalSpent).Add(w.TotalTransferredIn).Sub(w.TotalTransferredOut)
}

// VerifyChain comprueba que cada fila cumpla after = before + signed(amount) y que las filas
// consecutivas (en orden cronológico) se encadenen. Devuelve el índice de la primera fila rota.
func VerifyChain(rows []*entity.WalletTransaction) (int, bool) {
	prev := decimal.Zero
	for i, r := range rows {
		if !r.BalanceAfter.Equal(r.BalanceBefore.Add(Signed(r.Type, r.Amount))) {
			return i, false
		}
		if !r.BalanceBefore.Equal(prev) {
			return i, false
		}
		prev = r.BalanceAfter
	}
	return -1, true
}
