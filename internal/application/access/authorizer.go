package access

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// Authorizer resuelve el alcance de un actor sobre el árbol de empresas.
// Un superadmin ve todo; los demás ven su empresa y sus descendientes.
type Authorizer struct {
	companies repository.CompanyRepository
}

// NewAuthorizer construye el autorizador.
func NewAuthorizer(companies repository.CompanyRepository) *Authorizer {
	return &Authorizer{companies: companies}
}

// RequireSuperAdmin devuelve domain.ErrForbidden si el actor no es superadmin.
func (a *Authorizer) RequireSuperAdmin(actor entity.Actor) error {
	if !actor.IsSuperAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// CanAccessCompany verifica que companyID exista y esté en el subárbol del actor.
func (a *Authorizer) CanAccessCompany(ctx context.Context, actor entity.Actor, companyID string) error {
	company, err := a.companies.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	if actor.IsSuperAdmin() || actor.CompanyID == companyID {
		return nil
	}
	if actor.CompanyID == "" {
		return domain.ErrForbidden
	}
	ancestors, err := a.companies.ListAncestors(ctx, companyID)
	if err != nil {
		return err
	}
	for _, anc := range ancestors {
		if anc.ID == actor.CompanyID {
			return nil
		}
	}
	return domain.ErrForbidden
}

// CanAccessOwner como CanAccessCompany pero para recursos cuyo dueño puede ser nil
// (clientes sin empresa): solo el superadmin los gestiona.
func (a *Authorizer) CanAccessOwner(ctx context.Context, actor entity.Actor, ownerID *string) error {
	if ownerID == nil || *ownerID == "" {
		return a.RequireSuperAdmin(actor)
	}
	return a.CanAccessCompany(ctx, actor, *ownerID)
}

// ScopeCompanyIDs devuelve los IDs visibles para el actor; nil significa sin restricción.
func (a *Authorizer) ScopeCompanyIDs(ctx context.Context, actor entity.Actor) ([]string, error) {
	if actor.IsSuperAdmin() {
		return nil, nil
	}
	if actor.CompanyID == "" {
		return nil, domain.ErrForbidden
	}
	subtree, err := a.companies.ListSubtree(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subtree))
	for _, c := range subtree {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		ids = append(ids, actor.CompanyID)
	}
	return ids, nil
}
