package entity

import (
	"encoding/json"
	"time"
)

// Tipos de empresa dentro de la red de distribución.
const (
	CompanyTypeReseller   = "reseller"
	CompanyTypeSubCompany = "sub_company"
	CompanyTypeAgent      = "agent"
	CompanyTypeEndClient  = "end_client"
)

// Estados de empresa.
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
	CompanyStatusInactive  = "inactive"
)

// Company representa una empresa de la red (revendedor, sub-empresa, agente o cliente final).
// La jerarquía se guarda solo como ParentID; el recorrido del árbol vive en domain/company.
type Company struct {
	ID          string
	Name        string
	NIT         string // identificación tributaria, única
	Type        string
	ParentID    *string
	Status      string
	Email       string
	Phone       string
	ContactInfo json.RawMessage // JSON libre, validado solo en el borde HTTP
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot informa si la empresa no tiene padre.
func (c *Company) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
