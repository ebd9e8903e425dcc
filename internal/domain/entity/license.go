package entity

import "time"

// Estados de licencia.
const (
	LicenseStatusActive            = "active"
	LicenseStatusExpired           = "expired"
	LicenseStatusSuspended         = "suspended"
	LicenseStatusDemo              = "demo"
	LicenseStatusPendingValidation = "pending_validation"
)

// License es una instancia vendida de un producto para un cliente.
// Status es el estado almacenado; el estado vigente se calcula con license.ComputeStatus.
type License struct {
	ID              string
	ClientID        string
	ProductID       string
	ActivationKey   string
	ComputerKey     *string // se genera en la primera activación
	DeviceID        *string // equipo vinculado
	LicenseType     string  // copiado de la plantilla del producto
	DurationDays    int
	ActivatedAt     *time.Time
	ExpiresAt       *time.Time
	Status          string
	SuspendedReason string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsBound informa si la licencia ya tiene un equipo vinculado.
func (l *License) IsBound() bool {
	return l.ComputerKey != nil && *l.ComputerKey != ""
}

// BoundTo informa si la licencia está vinculada al equipo indicado.
func (l *License) BoundTo(deviceID string) bool {
	return l.IsBound() && l.DeviceID != nil && *l.DeviceID == deviceID
}
