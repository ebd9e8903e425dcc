package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plantillas de tipo de licencia de un producto.
const (
	LicenseTypeTrial        = "trial"
	LicenseTypeSubscription = "subscription"
	LicenseTypePerpetual    = "perpetual"
)

// Product representa un software licenciable y su plantilla de licencia.
type Product struct {
	ID           string
	Name         string
	Version      string
	Price        decimal.Decimal
	Discount     decimal.Decimal
	LicenseType  string // trial, subscription, perpetual
	MaxUsers     int
	MaxDevices   int
	TrialDays    int // días de la licencia demo
	DurationDays int // vigencia de una suscripción; 0 = sin vencimiento
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LicenseDurationDays devuelve la vigencia que hereda una licencia nueva de este producto.
func (p *Product) LicenseDurationDays() int {
	switch p.LicenseType {
	case LicenseTypeTrial:
		return p.TrialDays
	case LicenseTypePerpetual:
		return 0
	default:
		return p.DurationDays
	}
}
