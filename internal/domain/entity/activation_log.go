package entity

import (
	"encoding/json"
	"time"
)

// Tipos de llave presentada en un intento de activación.
const (
	KeyTypeActivation = "activation"
	KeyTypeComputer   = "computer"
)

// Resultados de un intento de activación.
const (
	ActivationResultSuccess = "success"
	ActivationResultFailure = "failure"
)

// ActivationLog registro inmutable de un intento de activación o validación.
type ActivationLog struct {
	ID           string
	LicenseID    *string // nil si la llave no existe
	PresentedKey string
	KeyType      string
	DeviceID     string
	DeviceInfo   json.RawMessage
	Result       string
	ErrorCode    string
	ErrorMessage string
	IP           string
	UserAgent    string
	CreatedAt    time.Time
}

// AccessLog registro inmutable de una petición a la API.
type AccessLog struct {
	ID         string
	UserID     string
	CompanyID  string
	Method     string
	Path       string
	StatusCode int
	LatencyMs  int64
	IP         string
	UserAgent  string
	CreatedAt  time.Time
}
