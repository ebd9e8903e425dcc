package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácoras inmutables de activación y acceso.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// InsertActivationLog registra un intento de activación o validación.
func (r *AuditRepo) InsertActivationLog(ctx context.Context, l *entity.ActivationLog) error {
	query := `
		INSERT INTO activation_logs (id, license_id, presented_key, key_type, device_id, device_info, result,
		                             error_code, error_message, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		l.ID, nullIfEmpty(l.LicenseID), l.PresentedKey, l.KeyType, l.DeviceID, l.DeviceInfo, l.Result,
		l.ErrorCode, l.ErrorMessage, l.IP, l.UserAgent, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activation log: %w", err)
	}
	return nil
}

// InsertAccessLog registra una petición a la API.
func (r *AuditRepo) InsertAccessLog(ctx context.Context, l *entity.AccessLog) error {
	query := `
		INSERT INTO access_logs (id, user_id, company_id, method, path, status_code, latency_ms, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.UserID, l.CompanyID, l.Method, l.Path, l.StatusCode, l.LatencyMs, l.IP, l.UserAgent, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

// ListActivationLogs más recientes primero; licenseID vacío = todas.
func (r *AuditRepo) ListActivationLogs(ctx context.Context, licenseID string, limit int) ([]*entity.ActivationLog, error) {
	query := `
		SELECT id, license_id, presented_key, key_type, device_id, device_info, result, error_code, error_message,
		       ip, user_agent, created_at
		FROM activation_logs
		WHERE ($1 = '' OR license_id::text = $1)
		ORDER BY created_at DESC, id
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, licenseID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list activation logs: %w", err)
	}
	defer rows.Close()

	var list []*entity.ActivationLog
	for rows.Next() {
		var l entity.ActivationLog
		if err := rows.Scan(&l.ID, &l.LicenseID, &l.PresentedKey, &l.KeyType, &l.DeviceID, &l.DeviceInfo, &l.Result,
			&l.ErrorCode, &l.ErrorMessage, &l.IP, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activation log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
