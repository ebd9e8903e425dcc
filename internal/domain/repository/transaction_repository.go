package repository

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// TransactionRepository puerto de persistencia para las ventas de licencias.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	ListByLicense(ctx context.Context, licenseID string) ([]*entity.Transaction, error)
}
