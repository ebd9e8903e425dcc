package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// ClientUseCase casos de uso de clientes titulares de licencias.
type ClientUseCase struct {
	repo       repository.ClientRepository
	authorizer *access.Authorizer
	nowFn      func() time.Time
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository, authorizer *access.Authorizer) *ClientUseCase {
	return &ClientUseCase{repo: repo, authorizer: authorizer, nowFn: time.Now}
}

// Create crea un cliente en estado pending. Si el actor no es superadmin y no indica empresa,
// el cliente queda asociado a la empresa del actor.
func (uc *ClientUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	companyID := in.CompanyID
	if (companyID == nil || *companyID == "") && !actor.IsSuperAdmin() {
		own := actor.CompanyID
		companyID = &own
	}
	if err := uc.authorizer.CanAccessOwner(ctx, actor, companyID); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	c := &entity.Client{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		NIT:         strings.TrimSpace(in.NIT),
		ContactInfo: in.ContactInfo,
		Status:      entity.ClientStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

func (uc *ClientUseCase) load(ctx context.Context, actor entity.Actor, id string) (*entity.Client, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.authorizer.CanAccessOwner(ctx, actor, c.CompanyID); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID obtiene un cliente visible para el actor.
func (uc *ClientUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.ClientResponse, error) {
	c, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// List lista clientes del alcance del actor; companyID restringe a una empresa concreta.
func (uc *ClientUseCase) List(ctx context.Context, actor entity.Actor, companyID, status string, limit, offset int) (*dto.ClientListResponse, error) {
	scope, err := uc.authorizer.ScopeCompanyIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if companyID != "" {
		if err := uc.authorizer.CanAccessCompany(ctx, actor, companyID); err != nil {
			return nil, err
		}
		scope = []string{companyID}
	}
	list, err := uc.repo.List(ctx, repository.ClientFilter{CompanyIDs: scope, Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toClientResponse(c))
	}
	return &dto.ClientListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// Update actualiza datos del cliente.
func (uc *ClientUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	c, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.NIT != nil {
		c.NIT = strings.TrimSpace(*in.NIT)
	}
	if in.ContactInfo != nil {
		c.ContactInfo = in.ContactInfo
	}
	c.UpdatedAt = uc.nowFn()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// SetStatus cambia el estado del cliente (validated, pending, suspended).
func (uc *ClientUseCase) SetStatus(ctx context.Context, actor entity.Actor, id, status string) (*dto.ClientResponse, error) {
	switch status {
	case entity.ClientStatusValidated, entity.ClientStatusPending, entity.ClientStatusSuspended:
	default:
		return nil, domain.ErrValidation
	}
	c, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = uc.nowFn()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		Email:       c.Email,
		NIT:         c.NIT,
		ContactInfo: c.ContactInfo,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
