package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var _ repository.DeviceRegistrationRepository = (*DeviceRepo)(nil)

// DeviceRepo registros de equipos (cabecera + detalle) sobre PostgreSQL.
type DeviceRepo struct {
	q Querier
}

// NewDeviceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeviceRepository(q Querier) *DeviceRepo {
	return &DeviceRepo{q: q}
}

// UpsertHeader crea la cabecera o actualiza su nombre; completa ID y CreatedAt.
func (r *DeviceRepo) UpsertHeader(ctx context.Context, reg *entity.DeviceRegistration) error {
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO device_registrations (id, company_nit, company_name, product_id, product_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_nit, product_id, product_version)
		DO UPDATE SET company_name = EXCLUDED.company_name, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		reg.ID, reg.CompanyNIT, reg.CompanyName, reg.ProductID, reg.ProductVersion, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("producto: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("upsert device registration: %w", err)
	}
	return nil
}

// UpsertDevice crea el equipo o incrementa su contador de uso en una sola sentencia.
func (r *DeviceRepo) UpsertDevice(ctx context.Context, d *entity.RegisteredDevice) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO registered_devices (id, registration_id, device_uid, os_name, os_version, hostname, computer_key,
		                                usage_count, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
		ON CONFLICT (registration_id, device_uid)
		DO UPDATE SET os_name = EXCLUDED.os_name, os_version = EXCLUDED.os_version, hostname = EXCLUDED.hostname,
		              computer_key = COALESCE(EXCLUDED.computer_key, registered_devices.computer_key),
		              usage_count = registered_devices.usage_count + 1,
		              last_seen_at = EXCLUDED.last_seen_at
		RETURNING id, computer_key, usage_count, first_seen_at, last_seen_at`
	err := r.q.QueryRow(ctx, query,
		d.ID, d.RegistrationID, d.DeviceUID, d.OSName, d.OSVersion, d.Hostname, nullIfEmpty(d.ComputerKey), d.LastSeenAt,
	).Scan(&d.ID, &d.ComputerKey, &d.UsageCount, &d.FirstSeenAt, &d.LastSeenAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("upsert registered device: %w", err)
	}
	return nil
}

// ListByNIT cabeceras de la empresa con sus equipos.
func (r *DeviceRepo) ListByNIT(ctx context.Context, nit string) ([]*entity.DeviceRegistration, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_nit, company_name, product_id, product_version, created_at, updated_at
		FROM device_registrations WHERE company_nit = $1
		ORDER BY product_id, product_version`, nit)
	if err != nil {
		return nil, fmt.Errorf("list device registrations: %w", err)
	}
	var (
		list []*entity.DeviceRegistration
		ids  []string
		byID = map[string]*entity.DeviceRegistration{}
	)
	for rows.Next() {
		var reg entity.DeviceRegistration
		if err := rows.Scan(&reg.ID, &reg.CompanyNIT, &reg.CompanyName, &reg.ProductID, &reg.ProductVersion, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan device registration: %w", err)
		}
		list = append(list, &reg)
		ids = append(ids, reg.ID)
		byID[reg.ID] = &reg
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	devRows, err := r.q.Query(ctx, `
		SELECT id, registration_id, device_uid, os_name, os_version, hostname, computer_key, usage_count, first_seen_at, last_seen_at
		FROM registered_devices WHERE registration_id = ANY($1::uuid[])
		ORDER BY device_uid`, ids)
	if err != nil {
		return nil, fmt.Errorf("list registered devices: %w", err)
	}
	defer devRows.Close()
	for devRows.Next() {
		var d entity.RegisteredDevice
		if err := devRows.Scan(&d.ID, &d.RegistrationID, &d.DeviceUID, &d.OSName, &d.OSVersion, &d.Hostname,
			&d.ComputerKey, &d.UsageCount, &d.FirstSeenAt, &d.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan registered device: %w", err)
		}
		if reg := byID[d.RegistrationID]; reg != nil {
			reg.Devices = append(reg.Devices, d)
		}
	}
	return list, devRows.Err()
}
