package ports

import "github.com/jhoicas/Licencias-api/internal/domain/entity"

// AuditSink recibe bitácoras inmutables. Las implementaciones no deben bloquear al llamador:
// la operación principal no depende del éxito de la escritura.
type AuditSink interface {
	RecordActivation(log *entity.ActivationLog)
	RecordAccess(log *entity.AccessLog)
}

// NoopAuditSink descarta las bitácoras.
type NoopAuditSink struct{}

func (NoopAuditSink) RecordActivation(*entity.ActivationLog) {}
func (NoopAuditSink) RecordAccess(*entity.AccessLog)         {}
