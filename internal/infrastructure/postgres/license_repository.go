package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var _ repository.LicenseRepository = (*LicenseRepo)(nil)

const licenseColumns = `id, client_id, product_id, activation_key, computer_key, device_id, license_type, duration_days,
	activated_at, expires_at, status, suspended_reason, created_by, created_at, updated_at`

// LicenseRepo implementación del puerto LicenseRepository sobre PostgreSQL (usable con pool o tx).
// Los métodos *ForUpdate solo bloquean dentro de una transacción.
type LicenseRepo struct {
	q Querier
}

// NewLicenseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLicenseRepository(q Querier) *LicenseRepo {
	return &LicenseRepo{q: q}
}

func scanLicense(row pgxScanner) (*entity.License, error) {
	var l entity.License
	err := row.Scan(&l.ID, &l.ClientID, &l.ProductID, &l.ActivationKey, &l.ComputerKey, &l.DeviceID,
		&l.LicenseType, &l.DurationDays, &l.ActivatedAt, &l.ExpiresAt, &l.Status, &l.SuspendedReason,
		&l.CreatedBy, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste una licencia nueva. Una llave de activación repetida devuelve domain.ErrDuplicate.
func (r *LicenseRepo) Create(ctx context.Context, l *entity.License) error {
	query := `
		INSERT INTO licenses (` + licenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.ClientID, l.ProductID, l.ActivationKey, l.ComputerKey, l.DeviceID, l.LicenseType, l.DurationDays,
		l.ActivatedAt, l.ExpiresAt, l.Status, l.SuspendedReason, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert license: %w", err)
	}
	return nil
}

func (r *LicenseRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.License, error) {
	l, err := scanLicense(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// GetByID obtiene una licencia por ID.
func (r *LicenseRepo) GetByID(ctx context.Context, id string) (*entity.License, error) {
	return r.getOne(ctx, "get license", `SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene la licencia y bloquea la fila (SELECT FOR UPDATE).
func (r *LicenseRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.License, error) {
	return r.getOne(ctx, "get license for update", `SELECT `+licenseColumns+` FROM licenses WHERE id = $1 FOR UPDATE`, id)
}

// GetByActivationKey obtiene una licencia por su llave de activación.
func (r *LicenseRepo) GetByActivationKey(ctx context.Context, key string) (*entity.License, error) {
	return r.getOne(ctx, "get license by key", `SELECT `+licenseColumns+` FROM licenses WHERE activation_key = $1`, key)
}

// GetByActivationKeyForUpdate igual que GetByActivationKey pero bloqueando la fila.
// Dos activaciones simultáneas de la misma llave se serializan aquí.
func (r *LicenseRepo) GetByActivationKeyForUpdate(ctx context.Context, key string) (*entity.License, error) {
	return r.getOne(ctx, "get license by key for update",
		`SELECT `+licenseColumns+` FROM licenses WHERE activation_key = $1 FOR UPDATE`, key)
}

// Update persiste vínculo, fechas y estado. La llave de activación y el titular no cambian.
func (r *LicenseRepo) Update(ctx context.Context, l *entity.License) error {
	query := `
		UPDATE licenses SET computer_key = $2, device_id = $3, activated_at = $4, expires_at = $5,
		       status = $6, suspended_reason = $7, duration_days = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		l.ID, nullIfEmpty(l.ComputerKey), nullIfEmpty(l.DeviceID), l.ActivatedAt, l.ExpiresAt,
		l.Status, l.SuspendedReason, l.DurationDays, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: llave de equipo repetida", domain.ErrConflict)
		}
		return fmt.Errorf("update license: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scopeJoin restringe a licencias de clientes de las empresas $1 (arreglo vacío = sin filtro).
const scopeJoin = `
	FROM licenses l JOIN clients c ON c.id = l.client_id
	WHERE (cardinality($1::uuid[]) = 0 OR c.company_id = ANY($1::uuid[]))`

// List licencias filtradas, más recientes primero.
func (r *LicenseRepo) List(ctx context.Context, f repository.LicenseFilter) ([]*entity.License, error) {
	query := `SELECT ` + prefixed("l", licenseColumns) + scopeJoin + `
		  AND ($2 = '' OR l.client_id::text = $2)
		  AND ($3 = '' OR l.product_id::text = $3)
		ORDER BY l.created_at DESC, l.id
		LIMIT $4 OFFSET $5`
	return r.queryList(ctx, "list licenses", query, idsOrEmpty(f.CompanyIDs), f.ClientID, f.ProductID, limitOrAll(f.Limit), f.Offset)
}

// ListExpiringBetween licencias con from < expires_at <= to, la más próxima primero.
func (r *LicenseRepo) ListExpiringBetween(ctx context.Context, from, to time.Time, companyIDs []string) ([]*entity.License, error) {
	query := `SELECT ` + prefixed("l", licenseColumns) + scopeJoin + `
		  AND l.expires_at > $2 AND l.expires_at <= $3
		ORDER BY l.expires_at, l.id`
	return r.queryList(ctx, "list expiring licenses", query, idsOrEmpty(companyIDs), from, to)
}

// ListStale licencias no terminales con expires_at < now.
func (r *LicenseRepo) ListStale(ctx context.Context, now time.Time, limit int) ([]*entity.License, error) {
	query := `
		SELECT ` + licenseColumns + ` FROM licenses
		WHERE status NOT IN ('suspended', 'expired') AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY id
		LIMIT $2`
	return r.queryList(ctx, "list stale licenses", query, now, limitOrAll(limit))
}

func (r *LicenseRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.License, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*entity.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
