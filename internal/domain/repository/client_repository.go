package repository

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// ClientFilter filtros del listado de clientes.
type ClientFilter struct {
	CompanyIDs []string // vacío = sin filtro
	Status     string
	Limit      int
	Offset     int
}

// ClientRepository puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	List(ctx context.Context, filter ClientFilter) ([]*entity.Client, error)
}
