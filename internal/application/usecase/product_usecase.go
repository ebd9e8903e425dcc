package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
	domwallet "github.com/jhoicas/Licencias-api/internal/domain/wallet"
)

// ProductUseCase casos de uso del catálogo de productos licenciables. El catálogo es de la
// plataforma: solo el superadmin lo modifica. No hay borrado; un producto se desactiva.
type ProductUseCase struct {
	repo  repository.ProductRepository
	nowFn func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, nowFn: time.Now}
}

func validatePricing(price, discount decimal.Decimal) error {
	for _, v := range []decimal.Decimal{price, discount} {
		if v.IsNegative() || !v.Equal(v.Round(domwallet.MoneyScale)) {
			return domain.ErrInvalidAmount
		}
	}
	if discount.GreaterThan(price) {
		return fmt.Errorf("%w: el descuento supera el precio", domain.ErrInvalidAmount)
	}
	return nil
}

func validateTemplate(p *entity.Product) error {
	switch p.LicenseType {
	case entity.LicenseTypeTrial:
		if p.TrialDays <= 0 {
			return fmt.Errorf("%w: un producto de prueba requiere trial_days", domain.ErrValidation)
		}
	case entity.LicenseTypeSubscription, entity.LicenseTypePerpetual:
	default:
		return fmt.Errorf("%w: tipo de licencia %q", domain.ErrValidation, p.LicenseType)
	}
	return nil
}

// Create crea un nuevo producto activo.
func (uc *ProductUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validatePricing(in.Price, in.Discount); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	product := &entity.Product{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Version:      strings.TrimSpace(in.Version),
		Price:        in.Price,
		Discount:     in.Discount,
		LicenseType:  in.LicenseType,
		MaxUsers:     in.MaxUsers,
		MaxDevices:   in.MaxDevices,
		TrialDays:    in.TrialDays,
		DurationDays: in.DurationDays,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateTemplate(product); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. La plantilla de tipo de licencia no cambia: las licencias
// ya emitidas copiaron la suya.
func (uc *ProductUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Discount != nil {
		product.Discount = *in.Discount
	}
	if in.MaxUsers != nil {
		product.MaxUsers = *in.MaxUsers
	}
	if in.MaxDevices != nil {
		product.MaxDevices = *in.MaxDevices
	}
	if in.TrialDays != nil {
		product.TrialDays = *in.TrialDays
	}
	if in.DurationDays != nil {
		product.DurationDays = *in.DurationDays
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if err := validatePricing(product.Price, product.Discount); err != nil {
		return nil, err
	}
	if err := validateTemplate(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = uc.nowFn()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Version:      p.Version,
		Price:        p.Price,
		Discount:     p.Discount,
		LicenseType:  p.LicenseType,
		MaxUsers:     p.MaxUsers,
		MaxDevices:   p.MaxDevices,
		TrialDays:    p.TrialDays,
		DurationDays: p.DurationDays,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
