package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/company"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// DeviceTxRunner ejecuta fn con el repositorio de registros de equipos atado a una transacción.
type DeviceTxRunner interface {
	RunDevices(ctx context.Context, fn func(devices repository.DeviceRegistrationRepository) error) error
}

// DeviceRegistrationUseCase registra instalaciones del software (con o sin licencia asignada).
type DeviceRegistrationUseCase struct {
	txRunner   DeviceTxRunner
	devices    repository.DeviceRegistrationRepository
	products   repository.ProductRepository
	companies  repository.CompanyRepository
	authorizer *access.Authorizer
	nowFn      func() time.Time
}

// NewDeviceRegistrationUseCase construye el caso de uso.
func NewDeviceRegistrationUseCase(
	txRunner DeviceTxRunner,
	devices repository.DeviceRegistrationRepository,
	products repository.ProductRepository,
	companies repository.CompanyRepository,
	authorizer *access.Authorizer,
) *DeviceRegistrationUseCase {
	return &DeviceRegistrationUseCase{
		txRunner:   txRunner,
		devices:    devices,
		products:   products,
		companies:  companies,
		authorizer: authorizer,
		nowFn:      time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *DeviceRegistrationUseCase) WithClock(fn func() time.Time) *DeviceRegistrationUseCase {
	uc.nowFn = fn
	return uc
}

// Register crea o actualiza la cabecera (NIT, producto, versión) y el equipo; cada llamada
// repetida del mismo equipo incrementa su contador de uso.
func (uc *DeviceRegistrationUseCase) Register(ctx context.Context, in dto.RegisterDeviceRequest) (*entity.RegisteredDevice, error) {
	uid := strings.TrimSpace(in.DeviceUID)
	if uid == "" || in.ProductVersion == "" {
		return nil, domain.ErrValidation
	}
	nit, err := company.NormalizeNIT(in.CompanyNIT)
	if err != nil {
		return nil, err
	}
	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}
	now := uc.nowFn()
	header := &entity.DeviceRegistration{
		CompanyNIT:     nit,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		ProductID:      product.ID,
		ProductVersion: strings.TrimSpace(in.ProductVersion),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	device := &entity.RegisteredDevice{
		DeviceUID:   uid,
		OSName:      in.OSName,
		OSVersion:   in.OSVersion,
		Hostname:    in.Hostname,
		ComputerKey: in.ComputerKey,
		LastSeenAt:  now,
	}
	err = uc.txRunner.RunDevices(ctx, func(devices repository.DeviceRegistrationRepository) error {
		if err := devices.UpsertHeader(ctx, header); err != nil {
			return err
		}
		device.RegistrationID = header.ID
		return devices.UpsertDevice(ctx, device)
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

// ListByNIT registros de la empresa con ese NIT. Fuera del superadmin, el NIT debe
// corresponder a una empresa del alcance del actor.
func (uc *DeviceRegistrationUseCase) ListByNIT(ctx context.Context, actor entity.Actor, nit string) ([]dto.DeviceRegistrationResponse, error) {
	nit, err := company.NormalizeNIT(nit)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() {
		c, err := uc.companies.GetByNIT(ctx, nit)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrForbidden
		}
		if err := uc.authorizer.CanAccessCompany(ctx, actor, c.ID); err != nil {
			return nil, err
		}
	}
	list, err := uc.devices.ListByNIT(ctx, nit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeviceRegistrationResponse, 0, len(list))
	for _, reg := range list {
		item := dto.DeviceRegistrationResponse{
			ID:             reg.ID,
			CompanyNIT:     reg.CompanyNIT,
			CompanyName:    reg.CompanyName,
			ProductID:      reg.ProductID,
			ProductVersion: reg.ProductVersion,
			Devices:        make([]dto.RegisteredDeviceResponse, 0, len(reg.Devices)),
			UpdatedAt:      reg.UpdatedAt,
		}
		for _, d := range reg.Devices {
			item.Devices = append(item.Devices, dto.RegisteredDeviceResponse{
				ID:          d.ID,
				DeviceUID:   d.DeviceUID,
				OSName:      d.OSName,
				OSVersion:   d.OSVersion,
				Hostname:    d.Hostname,
				Bound:       d.ComputerKey != nil && *d.ComputerKey != "",
				UsageCount:  d.UsageCount,
				FirstSeenAt: d.FirstSeenAt,
				LastSeenAt:  d.LastSeenAt,
			})
		}
		out = append(out, item)
	}
	return out, nil
}
