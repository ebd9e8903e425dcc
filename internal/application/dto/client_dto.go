package dto

import (
	"encoding/json"
	"time"
)

// CreateClientRequest entrada para crear un cliente.
type CreateClientRequest struct {
	CompanyID   *string         `json:"company_id" validate:"omitempty,uuid"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Email       string          `json:"email" validate:"omitempty,email"`
	NIT         string          `json:"nit" validate:"omitempty,max=20"`
	ContactInfo json.RawMessage `json:"contact_info" swaggertype:"object"`
}

// UpdateClientRequest entrada para actualizar un cliente.
type UpdateClientRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Email       *string         `json:"email" validate:"omitempty,email"`
	NIT         *string         `json:"nit" validate:"omitempty,max=20"`
	ContactInfo json.RawMessage `json:"contact_info" swaggertype:"object"`
}

// ClientStatusRequest cambio de estado de un cliente.
type ClientStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=validated pending suspended"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID          string          `json:"id"`
	CompanyID   *string         `json:"company_id,omitempty"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	NIT         string          `json:"nit"`
	ContactInfo json.RawMessage `json:"contact_info,omitempty" swaggertype:"object"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ClientListResponse lista paginada de clientes.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
