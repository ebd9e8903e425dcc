package license

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	domlicense "github.com/jhoicas/Licencias-api/internal/domain/license"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// ActivationUseCase atiende las peticiones del software cliente: activación con llave y
// revalidación con la llave de equipo. No requiere usuario autenticado.
type ActivationUseCase struct {
	txRunner  TxRunner
	licenses  repository.LicenseRepository
	audit     ports.AuditSink
	publisher ports.EventPublisher
	metrics   ports.Metrics
	log       zerolog.Logger
	nowFn     func() time.Time
}

// NewActivationUseCase construye el caso de uso.
func NewActivationUseCase(
	txRunner TxRunner,
	licenses repository.LicenseRepository,
	audit ports.AuditSink,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
) *ActivationUseCase {
	if audit == nil {
		audit = ports.NoopAuditSink{}
	}
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &ActivationUseCase{
		txRunner:  txRunner,
		licenses:  licenses,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		nowFn:     time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (uc *ActivationUseCase) WithClock(fn func() time.Time) *ActivationUseCase {
	uc.nowFn = fn
	return uc
}

// ActivateInput petición de activación del software cliente.
type ActivateInput struct {
	ActivationKey string
	DeviceID      string
	DeviceInfo    json.RawMessage
	IP            string
	UserAgent     string
}

// ValidateInput revalidación periódica con la llave de equipo entregada en la activación.
type ValidateInput struct {
	ActivationKey string
	ComputerKey   string
	DeviceID      string
	DeviceInfo    json.RawMessage
	IP            string
	UserAgent     string
}

// ActivationResult resultado tipado. Si Success es false, Err contiene el error de dominio
// (domain.ErrNotFound, ErrAlreadyBound, ErrExpired, ErrSuspended, ErrValidation) y Code su código.
type ActivationResult struct {
	Success         bool
	Code            string
	Message         string
	Err             error
	LicenseID       string
	Status          string
	ComputerKey     string
	ActivatedAt     *time.Time
	ExpiresAt       *time.Time
	FirstActivation bool
}

func failure(err error) ActivationResult {
	return ActivationResult{Code: domain.ErrorCode(err), Message: err.Error(), Err: err}
}

func success(l *entity.License, status string, first bool) ActivationResult {
	res := ActivationResult{
		Success:         true,
		LicenseID:       l.ID,
		Status:          status,
		ActivatedAt:     l.ActivatedAt,
		ExpiresAt:       l.ExpiresAt,
		FirstActivation: first,
	}
	if l.ComputerKey != nil {
		res.ComputerKey = *l.ComputerKey
	}
	return res
}

// Activate vincula la licencia al equipo. Bloquea la fila de la licencia (SELECT FOR UPDATE) para
// que dos activaciones simultáneas desde equipos distintos no queden ambas vinculadas.
// Los fallos de negocio vuelven dentro de ActivationResult; error solo para fallos de infraestructura.
func (uc *ActivationUseCase) Activate(ctx context.Context, in ActivateInput) (ActivationResult, error) {
	now := uc.nowFn()
	key := domlicense.NormalizeKey(in.ActivationKey)
	deviceID := strings.TrimSpace(in.DeviceID)
	entry := uc.newLog(key, entity.KeyTypeActivation, deviceID, in.DeviceInfo, in.IP, in.UserAgent, now)

	if key == "" || deviceID == "" {
		return uc.finish(entry, failure(domain.ErrValidation), nil)
	}
	if !domlicense.IsWellFormedActivationKey(key) {
		return uc.finish(entry, failure(domain.ErrNotFound), nil)
	}

	var result ActivationResult
	err := uc.txRunner.RunLicense(ctx, func(licenses repository.LicenseRepository) error {
		l, err := licenses.GetByActivationKeyForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}
		id := l.ID
		entry.LicenseID = &id

		switch domlicense.ComputeStatus(l, now) {
		case entity.LicenseStatusSuspended:
			return domain.ErrSuspended
		case entity.LicenseStatusExpired:
			return domain.ErrExpired
		}
		if l.IsBound() && !l.BoundTo(deviceID) {
			return domain.ErrAlreadyBound
		}

		changed := false
		if !l.IsBound() {
			ck, err := domlicense.GenerateComputerKey()
			if err != nil {
				return err
			}
			l.ComputerKey = &ck
			l.DeviceID = &deviceID
			changed = true
		}
		first := l.ActivatedAt == nil
		if first {
			activatedAt := now
			l.ActivatedAt = &activatedAt
			if exp := domlicense.ExpiryOnActivation(l, now); exp != nil {
				l.ExpiresAt = exp
			}
			changed = true
		}
		if st := domlicense.ActivatedStatus(l); st != l.Status {
			l.Status = st
			changed = true
		}
		if changed {
			l.UpdatedAt = now
			if err := licenses.Update(ctx, l); err != nil {
				return err
			}
		}
		result = success(l, domlicense.ComputeStatus(l, now), first)
		return nil
	})
	if err != nil {
		if domain.IsBusiness(err) {
			return uc.finish(entry, failure(err), nil)
		}
		return uc.finish(entry, failure(err), err)
	}
	if result.FirstActivation {
		if perr := uc.publisher.Publish(ctx, ports.SubjectLicenseActivated, map[string]any{
			"license_id":   result.LicenseID,
			"device_id":    deviceID,
			"activated_at": result.ActivatedAt,
			"expires_at":   result.ExpiresAt,
		}); perr != nil {
			uc.log.Warn().Err(perr).Str("license_id", result.LicenseID).Msg("no se pudo publicar activación")
		}
	}
	return uc.finish(entry, result, nil)
}

// Validate comprueba que el equipo siga siendo el vinculado y que la licencia siga vigente.
// Solo lectura: no modifica la licencia.
func (uc *ActivationUseCase) Validate(ctx context.Context, in ValidateInput) (ActivationResult, error) {
	now := uc.nowFn()
	key := domlicense.NormalizeKey(in.ActivationKey)
	computerKey := domlicense.NormalizeKey(in.ComputerKey)
	deviceID := strings.TrimSpace(in.DeviceID)
	entry := uc.newLog(key, entity.KeyTypeComputer, deviceID, in.DeviceInfo, in.IP, in.UserAgent, now)

	if key == "" || computerKey == "" || deviceID == "" {
		return uc.finish(entry, failure(domain.ErrValidation), nil)
	}
	l, err := uc.licenses.GetByActivationKey(ctx, key)
	if err != nil {
		return uc.finish(entry, failure(err), err)
	}
	if l == nil {
		return uc.finish(entry, failure(domain.ErrNotFound), nil)
	}
	id := l.ID
	entry.LicenseID = &id

	if !l.IsBound() {
		return uc.finish(entry, failure(errNotActivated), nil)
	}
	if *l.ComputerKey != computerKey || !l.BoundTo(deviceID) {
		return uc.finish(entry, failure(domain.ErrAlreadyBound), nil)
	}
	status := domlicense.ComputeStatus(l, now)
	switch status {
	case entity.LicenseStatusSuspended:
		return uc.finish(entry, failure(domain.ErrSuspended), nil)
	case entity.LicenseStatusExpired:
		return uc.finish(entry, failure(domain.ErrExpired), nil)
	}
	return uc.finish(entry, success(l, status, false), nil)
}

var errNotActivated = fmt.Errorf("%w: la licencia no ha sido activada en ningún equipo", domain.ErrValidation)

func (uc *ActivationUseCase) newLog(key, keyType, deviceID string, info json.RawMessage, ip, ua string, now time.Time) *entity.ActivationLog {
	return &entity.ActivationLog{
		ID:           uuid.New().String(),
		PresentedKey: key,
		KeyType:      keyType,
		DeviceID:     deviceID,
		DeviceInfo:   info,
		IP:           ip,
		UserAgent:    ua,
		CreatedAt:    now,
	}
}

// finish completa la bitácora, la entrega al sink (sin bloquear) y registra métricas.
func (uc *ActivationUseCase) finish(entry *entity.ActivationLog, res ActivationResult, err error) (ActivationResult, error) {
	if res.Success {
		entry.Result = entity.ActivationResultSuccess
	} else {
		entry.Result = entity.ActivationResultFailure
		entry.ErrorCode = res.Code
		entry.ErrorMessage = res.Message
		if err != nil {
			// El detalle de infraestructura queda en el log del servidor, no en la bitácora pública.
			entry.ErrorMessage = "error interno"
			uc.log.Error().Err(err).Str("key_type", entry.KeyType).Msg("fallo de infraestructura en activación")
		}
	}
	uc.audit.RecordActivation(entry)
	uc.metrics.ObserveActivation(entry.KeyType, entry.Result, entry.ErrorCode)
	return res, err
}
