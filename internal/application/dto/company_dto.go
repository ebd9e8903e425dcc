package dto

import (
	"encoding/json"
	"time"
)

// CreateCompanyRequest entrada para crear una empresa de la red.
type CreateCompanyRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	NIT         string          `json:"nit" validate:"required,min=1,max=20"`
	Type        string          `json:"type" validate:"required,oneof=reseller sub_company agent end_client"`
	ParentID    *string         `json:"parent_id" validate:"omitempty,uuid"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Phone       string          `json:"phone" validate:"omitempty,max=30"`
	ContactInfo json.RawMessage `json:"contact_info" swaggertype:"object"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
type UpdateCompanyRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Email       *string         `json:"email" validate:"omitempty,email"`
	Phone       *string         `json:"phone" validate:"omitempty,max=30"`
	Status      *string         `json:"status" validate:"omitempty,oneof=active suspended inactive"`
	ContactInfo json.RawMessage `json:"contact_info" swaggertype:"object"`
}

// MoveCompanyRequest cambia el padre de una empresa. ParentID nil la deja como raíz.
type MoveCompanyRequest struct {
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	NIT         string          `json:"nit"`
	NITWithDV   string          `json:"nit_dv"`
	Type        string          `json:"type"`
	ParentID    *string         `json:"parent_id,omitempty"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Status      string          `json:"status"`
	ContactInfo json.RawMessage `json:"contact_info,omitempty" swaggertype:"object"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CompanyNode nodo del árbol de empresas.
type CompanyNode struct {
	CompanyResponse
	Children []CompanyNode `json:"children"`
}
