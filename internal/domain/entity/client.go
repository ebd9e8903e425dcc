package entity

import (
	"encoding/json"
	"time"
)

// Estados de cliente.
const (
	ClientStatusValidated = "validated"
	ClientStatusPending   = "pending"
	ClientStatusSuspended = "suspended"
)

// Client es el titular de licencias. Puede pertenecer a una empresa de la red o ser directo.
type Client struct {
	ID          string
	CompanyID   *string
	Name        string
	Email       string
	NIT         string
	ContactInfo json.RawMessage
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
