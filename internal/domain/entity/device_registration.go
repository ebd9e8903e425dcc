package entity

import "time"

// DeviceRegistration cabecera: agrupa equipos de una empresa (por NIT) bajo un producto/versión.
type DeviceRegistration struct {
	ID             string
	CompanyNIT     string
	CompanyName    string
	ProductID      string
	ProductVersion string
	Devices        []RegisteredDevice
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RegisteredDevice detalle: una instalación concreta del software.
type RegisteredDevice struct {
	ID             string
	RegistrationID string
	DeviceUID      string
	OSName         string
	OSVersion      string
	Hostname       string
	ComputerKey    *string
	UsageCount     int
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}
