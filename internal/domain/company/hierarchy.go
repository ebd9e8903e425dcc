// Package company valida la jerarquía de la red de distribución y ofrece
// utilidades de recorrido sobre la relación padre-hijo.
package company

import (
	"fmt"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// allowedParents tipos de padre permitidos por tipo de empresa. Lista vacía = solo raíz.
var allowedParents = map[string][]string{
	entity.CompanyTypeReseller:   {},
	entity.CompanyTypeSubCompany: {entity.CompanyTypeReseller, entity.CompanyTypeSubCompany},
	entity.CompanyTypeAgent:      {entity.CompanyTypeReseller, entity.CompanyTypeSubCompany},
	entity.CompanyTypeEndClient:  {entity.CompanyTypeReseller, entity.CompanyTypeSubCompany, entity.CompanyTypeAgent},
}

// requiresParent tipos que no pueden existir como raíz.
var requiresParent = map[string]bool{
	entity.CompanyTypeSubCompany: true,
	entity.CompanyTypeAgent:      true,
}

// IsValidType informa si t es un tipo de empresa conocido.
func IsValidType(t string) bool {
	_, ok := allowedParents[t]
	return ok
}

// ValidateParent aplica la regla tipo hijo → tipos de padre permitidos.
// parent nil significa que la empresa será raíz.
func ValidateParent(childType string, parent *entity.Company) error {
	allowed, ok := allowedParents[childType]
	if !ok {
		return fmt.Errorf("%w: tipo de empresa %q", domain.ErrValidation, childType)
	}
	if parent == nil {
		if requiresParent[childType] {
			return fmt.Errorf("%w: %s requiere una empresa padre", domain.ErrInvalidHierarchy, childType)
		}
		return nil
	}
	for _, t := range allowed {
		if parent.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %s no puede depender de %s", domain.ErrInvalidHierarchy, childType, parent.Type)
}
