package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// IssueLicenseRequest emisión de una licencia.
type IssueLicenseRequest struct {
	ClientID  string     `json:"client_id" validate:"required,uuid"`
	ProductID string     `json:"product_id" validate:"required,uuid"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// SuspendLicenseRequest motivo de suspensión.
type SuspendLicenseRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RenewLicenseRequest renovación: expires_at o extra_days.
type RenewLicenseRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	ExtraDays int        `json:"extra_days" validate:"min=0,max=3650"`
}

// LicenseResponse salida de una licencia. Status es el estado vigente calculado; StoredStatus el persistido.
type LicenseResponse struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"client_id"`
	ProductID       string     `json:"product_id"`
	ActivationKey   string     `json:"activation_key"`
	DeviceID        *string    `json:"device_id,omitempty"`
	Bound           bool       `json:"bound"`
	LicenseType     string     `json:"license_type"`
	DurationDays    int        `json:"duration_days"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Status          string     `json:"status"`
	StoredStatus    string     `json:"stored_status"`
	SuspendedReason string     `json:"suspended_reason,omitempty"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewLicenseResponse arma la respuesta. La llave de equipo nunca sale por la API de gestión.
func NewLicenseResponse(l *entity.License, effectiveStatus string) LicenseResponse {
	return LicenseResponse{
		ID:              l.ID,
		ClientID:        l.ClientID,
		ProductID:       l.ProductID,
		ActivationKey:   l.ActivationKey,
		DeviceID:        l.DeviceID,
		Bound:           l.IsBound(),
		LicenseType:     l.LicenseType,
		DurationDays:    l.DurationDays,
		ActivatedAt:     l.ActivatedAt,
		ExpiresAt:       l.ExpiresAt,
		Status:          effectiveStatus,
		StoredStatus:    l.Status,
		SuspendedReason: l.SuspendedReason,
		CreatedBy:       l.CreatedBy,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// LicenseListResponse lista de licencias.
type LicenseListResponse struct {
	Items []LicenseResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SweepResponse resultado del barrido de estados.
type SweepResponse struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// ActivateRequest petición del software cliente.
type ActivateRequest struct {
	ActivationKey string          `json:"activation_key" validate:"required,max=64"`
	DeviceID      string          `json:"device_id" validate:"required,max=200"`
	DeviceInfo    json.RawMessage `json:"device_info" swaggertype:"object"`
}

// ValidateActivationRequest revalidación con la llave de equipo.
type ValidateActivationRequest struct {
	ActivationKey string          `json:"activation_key" validate:"required,max=64"`
	ComputerKey   string          `json:"computer_key" validate:"required,max=64"`
	DeviceID      string          `json:"device_id" validate:"required,max=200"`
	DeviceInfo    json.RawMessage `json:"device_info" swaggertype:"object"`
}

// ActivationResponse resultado tipado de una activación. En fallo, Success=false con Code y Message.
type ActivationResponse struct {
	Success         bool       `json:"success"`
	Code            string     `json:"code,omitempty"`
	Message         string     `json:"message,omitempty"`
	LicenseID       string     `json:"license_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	ComputerKey     string     `json:"computer_key,omitempty"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	FirstActivation bool       `json:"first_activation,omitempty"`
}
