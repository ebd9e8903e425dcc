package ports

import "github.com/shopspring/decimal"

// Metrics contrato mínimo de instrumentación de los casos de uso.
type Metrics interface {
	ObserveActivation(keyType, result, code string)
	ObserveWalletOperation(txType, code string, amount decimal.Decimal)
	ObserveSweep(scanned, updated int)
}

// NoopMetrics no registra nada.
type NoopMetrics struct{}

func (NoopMetrics) ObserveActivation(string, string, string)                {}
func (NoopMetrics) ObserveWalletOperation(string, string, decimal.Decimal) {}
func (NoopMetrics) ObserveSweep(int, int)                                   {}
