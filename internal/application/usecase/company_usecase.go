package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/company"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas de la red (jerarquía incluida).
type CompanyUseCase struct {
	repo       repository.CompanyRepository
	authorizer *access.Authorizer
	nowFn      func() time.Time
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, authorizer *access.Authorizer) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, authorizer: authorizer, nowFn: time.Now}
}

// Create crea una nueva empresa validando el tipo de padre permitido.
// Devuelve domain.ErrDuplicate si el NIT ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	parent, err := uc.resolveParent(ctx, actor, in.ParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil && !actor.IsSuperAdmin() {
		// Solo el superadmin crea raíces de la red.
		return nil, domain.ErrForbidden
	}
	if err := company.ValidateParent(in.Type, parent); err != nil {
		return nil, err
	}
	nit, err := company.NormalizeNIT(in.NIT)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByNIT(ctx, nit)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := uc.nowFn()
	c := &entity.Company{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		NIT:         nit,
		Type:        in.Type,
		ParentID:    in.ParentID,
		Status:      entity.CompanyStatusActive,
		Email:       in.Email,
		Phone:       in.Phone,
		ContactInfo: in.ContactInfo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(c), nil
}

func (uc *CompanyUseCase) resolveParent(ctx context.Context, actor entity.Actor, parentID *string) (*entity.Company, error) {
	if parentID == nil || *parentID == "" {
		return nil, nil
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, *parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: la empresa padre no existe", domain.ErrInvalidHierarchy)
		}
		return nil, err
	}
	return uc.repo.GetByID(ctx, *parentID)
}

// GetByID obtiene una empresa visible para el actor.
func (uc *CompanyUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.CompanyResponse, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, id); err != nil {
		return nil, err
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(c), nil
}

// List lista empresas con paginación. Un usuario no superadmin ve su subárbol.
func (uc *CompanyUseCase) List(ctx context.Context, actor entity.Actor, limit, offset int) (*dto.CompanyListResponse, error) {
	var (
		list []*entity.Company
		err  error
	)
	if actor.IsSuperAdmin() {
		list, err = uc.repo.List(ctx, limit, offset)
	} else {
		list, err = uc.repo.ListSubtree(ctx, actor.CompanyID)
		list = pageOf(list, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Update actualiza datos básicos y estado.
func (uc *CompanyUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, id); err != nil {
		return nil, err
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Status != nil && id == actor.CompanyID && !actor.IsSuperAdmin() {
		// Una empresa no cambia su propio estado.
		return nil, domain.ErrForbidden
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.ContactInfo != nil {
		c.ContactInfo = in.ContactInfo
	}
	c.UpdatedAt = uc.nowFn()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(c), nil
}

// Move cambia el padre de una empresa. Rechaza ciclos y combinaciones de tipos no permitidas.
func (uc *CompanyUseCase) Move(ctx context.Context, actor entity.Actor, id string, newParentID *string) (*dto.CompanyResponse, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, id); err != nil {
		return nil, err
	}
	if id == actor.CompanyID && !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	parent, err := uc.resolveParent(ctx, actor, newParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil && !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := company.ValidateParent(c.Type, parent); err != nil {
		return nil, err
	}
	if parent != nil {
		subtree, err := uc.repo.ListSubtree(ctx, id)
		if err != nil {
			return nil, err
		}
		if company.NewTree(subtree).Contains(id, parent.ID) {
			return nil, fmt.Errorf("%w: el nuevo padre es descendiente de la empresa", domain.ErrInvalidHierarchy)
		}
		pid := parent.ID
		c.ParentID = &pid
	} else {
		c.ParentID = nil
	}
	c.UpdatedAt = uc.nowFn()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(c), nil
}

// Subtree devuelve el árbol con raíz en id.
func (uc *CompanyUseCase) Subtree(ctx context.Context, actor entity.Actor, id string) (*dto.CompanyNode, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, id); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListSubtree(ctx, id)
	if err != nil {
		return nil, err
	}
	tree := company.NewTree(list)
	root := tree.Get(id)
	if root == nil {
		return nil, domain.ErrNotFound
	}
	node := buildNode(tree, root, map[string]bool{})
	return &node, nil
}

func buildNode(tree *company.Tree, c *entity.Company, seen map[string]bool) dto.CompanyNode {
	seen[c.ID] = true
	node := dto.CompanyNode{CompanyResponse: *entityToCompanyResponse(c), Children: []dto.CompanyNode{}}
	for _, child := range tree.Children(c.ID) {
		if seen[child.ID] {
			continue
		}
		node.Children = append(node.Children, buildNode(tree, child, seen))
	}
	return node
}

// IsOperational informa si la empresa existe y está activa. Los usuarios de empresas
// suspendidas o inactivas no pueden operar.
func (uc *CompanyUseCase) IsOperational(ctx context.Context, companyID string) (bool, error) {
	if companyID == "" {
		return false, nil
	}
	c, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return false, err
	}
	return c != nil && c.Status == entity.CompanyStatusActive, nil
}

func pageOf[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		NIT:         c.NIT,
		NITWithDV:   company.FormatNIT(c.NIT),
		Type:        c.Type,
		ParentID:    c.ParentID,
		Email:       c.Email,
		Phone:       c.Phone,
		Status:      c.Status,
		ContactInfo: c.ContactInfo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
