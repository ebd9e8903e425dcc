package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto licenciable.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Version      string          `json:"version" validate:"required,min=1,max=50"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	Discount     decimal.Decimal `json:"discount" swaggertype:"string"`
	LicenseType  string          `json:"license_type" validate:"required,oneof=trial subscription perpetual"`
	MaxUsers     int             `json:"max_users" validate:"min=0"`
	MaxDevices   int             `json:"max_devices" validate:"min=0"`
	TrialDays    int             `json:"trial_days" validate:"min=0,max=365"`
	DurationDays int             `json:"duration_days" validate:"min=0"`
}

// UpdateProductRequest entrada para actualizar un producto.
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Price        *decimal.Decimal `json:"price" swaggertype:"string"`
	Discount     *decimal.Decimal `json:"discount" swaggertype:"string"`
	MaxUsers     *int             `json:"max_users" validate:"omitempty,min=0"`
	MaxDevices   *int             `json:"max_devices" validate:"omitempty,min=0"`
	TrialDays    *int             `json:"trial_days" validate:"omitempty,min=0,max=365"`
	DurationDays *int             `json:"duration_days" validate:"omitempty,min=0"`
	Active       *bool            `json:"active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	Discount     decimal.Decimal `json:"discount" swaggertype:"string"`
	LicenseType  string          `json:"license_type"`
	MaxUsers     int             `json:"max_users"`
	MaxDevices   int             `json:"max_devices"`
	TrialDays    int             `json:"trial_days"`
	DurationDays int             `json:"duration_days"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
