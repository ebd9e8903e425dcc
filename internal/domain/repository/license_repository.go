package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// LicenseFilter filtros del listado de licencias. El filtro por estado se aplica
// sobre el estado calculado en el caso de uso, no aquí.
type LicenseFilter struct {
	ClientID   string
	ProductID  string
	CompanyIDs []string // licencias de clientes de estas empresas
	Limit      int
	Offset     int
}

// LicenseRepository puerto de persistencia para License.
// Los métodos *ForUpdate bloquean la fila (SELECT FOR UPDATE) y solo tienen sentido dentro de una transacción.
type LicenseRepository interface {
	Create(ctx context.Context, license *entity.License) error
	GetByID(ctx context.Context, id string) (*entity.License, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.License, error)
	GetByActivationKey(ctx context.Context, key string) (*entity.License, error)
	GetByActivationKeyForUpdate(ctx context.Context, key string) (*entity.License, error)
	Update(ctx context.Context, license *entity.License) error
	List(ctx context.Context, filter LicenseFilter) ([]*entity.License, error)
	// ListExpiringBetween licencias con from < expires_at <= to, ordenadas por vencimiento ascendente.
	// companyIDs vacío = todas las empresas.
	ListExpiringBetween(ctx context.Context, from, to time.Time, companyIDs []string) ([]*entity.License, error)
	// ListStale licencias no terminales cuyo vencimiento ya pasó (candidatas del barrido).
	ListStale(ctx context.Context, now time.Time, limit int) ([]*entity.License, error)
}
