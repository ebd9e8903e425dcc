package dto

import "time"

// RegisterDeviceRequest registro (o latido) de una instalación del software.
type RegisterDeviceRequest struct {
	CompanyNIT     string  `json:"company_nit" validate:"required,max=20"`
	CompanyName    string  `json:"company_name" validate:"omitempty,max=200"`
	ProductID      string  `json:"product_id" validate:"required,uuid"`
	ProductVersion string  `json:"product_version" validate:"required,max=50"`
	DeviceUID      string  `json:"device_uid" validate:"required,max=200"`
	OSName         string  `json:"os_name" validate:"omitempty,max=100"`
	OSVersion      string  `json:"os_version" validate:"omitempty,max=100"`
	Hostname       string  `json:"hostname" validate:"omitempty,max=200"`
	ComputerKey    *string `json:"computer_key" validate:"omitempty,max=64"`
}

// RegisteredDeviceResponse detalle de un equipo.
type RegisteredDeviceResponse struct {
	ID          string    `json:"id"`
	DeviceUID   string    `json:"device_uid"`
	OSName      string    `json:"os_name"`
	OSVersion   string    `json:"os_version"`
	Hostname    string    `json:"hostname"`
	Bound       bool      `json:"bound"`
	UsageCount  int       `json:"usage_count"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// DeviceRegistrationResponse cabecera con sus equipos.
type DeviceRegistrationResponse struct {
	ID             string                     `json:"id"`
	CompanyNIT     string                     `json:"company_nit"`
	CompanyName    string                     `json:"company_name"`
	ProductID      string                     `json:"product_id"`
	ProductVersion string                     `json:"product_version"`
	Devices        []RegisteredDeviceResponse `json:"devices"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}
