package repository

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByNIT(ctx context.Context, nit string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	// ListSubtree devuelve rootID y todos sus descendientes (lista plana).
	ListSubtree(ctx context.Context, rootID string) ([]*entity.Company, error)
	// ListAncestors devuelve la cadena de padres de id, del padre directo a la raíz.
	ListAncestors(ctx context.Context, id string) ([]*entity.Company, error)
}
