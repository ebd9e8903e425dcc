package repository

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// DeviceRegistrationRepository puerto de persistencia de registros de equipos (cabecera + detalle).
type DeviceRegistrationRepository interface {
	// UpsertHeader crea o actualiza la cabecera por (NIT, producto, versión) y completa su ID.
	UpsertHeader(ctx context.Context, reg *entity.DeviceRegistration) error
	// UpsertDevice crea el equipo o incrementa su contador de uso; completa ID, UsageCount y FirstSeenAt.
	UpsertDevice(ctx context.Context, device *entity.RegisteredDevice) error
	// ListByNIT devuelve las cabeceras de la empresa con sus equipos.
	ListByNIT(ctx context.Context, nit string) ([]*entity.DeviceRegistration, error)
}
