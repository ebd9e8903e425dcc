package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummaryDTO respuesta de GET /api/dashboard.
// KPIs de la empresa del usuario: billetera, licencias por estado vigente y vencimientos próximos.
type DashboardSummaryDTO struct {
	CompanyID string `json:"company_id"`

	// Billetera
	Balance         decimal.Decimal `json:"balance" swaggertype:"string"`
	MonthRecharged  decimal.Decimal `json:"month_recharged" swaggertype:"string"`
	MonthSpent      decimal.Decimal `json:"month_spent" swaggertype:"string"`
	MonthTransfered decimal.Decimal `json:"month_transferred_out" swaggertype:"string"`

	// Licencias por estado vigente (active, expired, suspended, demo, pending_validation)
	LicensesByStatus map[string]int `json:"licenses_by_status"`

	// Próximas a vencer dentro del horizonte, la más próxima primero
	Expiring    []ExpiringLicenseDTO `json:"expiring"`
	HorizonDays int                  `json:"horizon_days"`

	DateLabel string `json:"date_label"` // ej: "Marzo 2026"
}

// ExpiringLicenseDTO resumen de una licencia por vencer.
type ExpiringLicenseDTO struct {
	LicenseID     string    `json:"license_id"`
	ClientID      string    `json:"client_id"`
	ActivationKey string    `json:"activation_key"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysLeft      int       `json:"days_left"`
}
