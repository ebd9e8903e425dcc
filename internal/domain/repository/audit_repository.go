package repository

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// AuditRepository puerto de escritura de bitácoras inmutables.
type AuditRepository interface {
	InsertActivationLog(ctx context.Context, log *entity.ActivationLog) error
	InsertAccessLog(ctx context.Context, log *entity.AccessLog) error
	ListActivationLogs(ctx context.Context, licenseID string, limit int) ([]*entity.ActivationLog, error)
}
