package license

import (
	"context"
	"errors"
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

// Intentos de generación de llave ante colisión con una llave existente.
const keyAttempts = 3

// UseCase gestión de licencias desde el back-office: emisión, consulta, suspensión,
// renovación, liberación de equipo y barrido de estados.
type UseCase struct {
	txRunner   TxRunner
	licenses   repository.LicenseRepository
	clients    repository.ClientRepository
	products   repository.ProductRepository
	authorizer Authorizer
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	signer     FileSigner
	renderer   CertificateRenderer
	issuer     string
	log        zerolog.Logger
	nowFn      func() time.Time
}

// NewUseCase construye el caso de uso de gestión de licencias.
func NewUseCase(
	txRunner TxRunner,
	licenses repository.LicenseRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	authorizer Authorizer,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
) *UseCase {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &UseCase{
		txRunner:   txRunner,
		licenses:   licenses,
		clients:    clients,
		products:   products,
		authorizer: authorizer,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		nowFn:      time.Now,
	}
}

// WithExporters configura la firma del archivo offline y el certificado PDF.
func (uc *UseCase) WithExporters(signer FileSigner, renderer CertificateRenderer, issuer string) *UseCase {
	uc.signer = signer
	uc.renderer = renderer
	uc.issuer = issuer
	return uc
}

// WithClock reemplaza el reloj (pruebas).
func (uc *UseCase) WithClock(fn func() time.Time) *UseCase {
	uc.nowFn = fn
	return uc
}

// View licencia con su estado vigente calculado en el instante de la lectura.
type View struct {
	License         *entity.License
	EffectiveStatus string
}

func newView(l *entity.License, now time.Time) *View {
	return &View{License: l, EffectiveStatus: domlicense.ComputeStatus(l, now)}
}

// IssueInput emisión de una licencia para un cliente y producto.
type IssueInput struct {
	ClientID  string
	ProductID string
	ExpiresAt *time.Time // opcional; si falta se calcula en la primera activación
}

// Issue crea una licencia pendiente (o demo si el producto es de prueba) con llave aleatoria.
func (uc *UseCase) Issue(ctx context.Context, actor entity.Actor, in IssueInput) (*View, error) {
	now := uc.nowFn()
	client, err := uc.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("cliente: %w", domain.ErrNotFound)
	}
	if err := uc.authorizer.CanAccessOwner(ctx, actor, client.CompanyID); err != nil {
		return nil, err
	}
	if client.Status == entity.ClientStatusSuspended {
		return nil, fmt.Errorf("%w: el cliente está suspendido", domain.ErrValidation)
	}
	product, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: el producto no está activo", domain.ErrValidation)
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: la fecha de vencimiento debe ser futura", domain.ErrValidation)
	}

	l := &entity.License{
		ID:           uuid.New().String(),
		ClientID:     client.ID,
		ProductID:    product.ID,
		LicenseType:  product.LicenseType,
		DurationDays: product.LicenseDurationDays(),
		ExpiresAt:    in.ExpiresAt,
		Status:       domlicense.InitialStatus(product.LicenseType),
		CreatedBy:    actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for attempt := 1; ; attempt++ {
		key, err := domlicense.GenerateActivationKey()
		if err != nil {
			return nil, err
		}
		l.ActivationKey = key
		err = uc.licenses.Create(ctx, l)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt == keyAttempts {
			return nil, err
		}
		uc.log.Warn().Int("attempt", attempt).Msg("colisión de llave de activación, generando otra")
	}
	uc.publishChange(ctx, l, "issued")
	return newView(l, now), nil
}

// Get devuelve una licencia visible para el actor.
func (uc *UseCase) Get(ctx context.Context, actor entity.Actor, id string) (*View, error) {
	l, _, err := uc.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return newView(l, uc.nowFn()), nil
}

// ListInput filtros del listado; Status se compara contra el estado vigente.
type ListInput struct {
	ClientID  string
	ProductID string
	Status    string
	Limit     int
	Offset    int
}

// List lista licencias del alcance del actor. El filtro Status se aplica sobre la página leída.
func (uc *UseCase) List(ctx context.Context, actor entity.Actor, in ListInput) ([]*View, error) {
	scope, err := uc.authorizer.ScopeCompanyIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	list, err := uc.licenses.List(ctx, repository.LicenseFilter{
		ClientID:   in.ClientID,
		ProductID:  in.ProductID,
		CompanyIDs: scope,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	now := uc.nowFn()
	out := make([]*View, 0, len(list))
	for _, l := range list {
		v := newView(l, now)
		if in.Status != "" && v.EffectiveStatus != in.Status {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// ListExpiring licencias con now < vencimiento <= now + horizonDays, la más próxima primero.
func (uc *UseCase) ListExpiring(ctx context.Context, actor entity.Actor, now time.Time, horizonDays int) ([]*View, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizonDays debe ser positivo", domain.ErrValidation)
	}
	scope, err := uc.authorizer.ScopeCompanyIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	to := now.Add(time.Duration(horizonDays) * 24 * time.Hour)
	candidates, err := uc.licenses.ListExpiringBetween(ctx, now, to, scope)
	if err != nil {
		return nil, err
	}
	list := domlicense.FilterExpiring(candidates, now, horizonDays)
	out := make([]*View, 0, len(list))
	for _, l := range list {
		out = append(out, newView(l, now))
	}
	return out, nil
}

// Suspend suspende la licencia. Suspender una licencia ya suspendida solo actualiza el motivo.
func (uc *UseCase) Suspend(ctx context.Context, actor entity.Actor, id, reason string) (*View, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: el motivo es obligatorio", domain.ErrValidation)
	}
	return uc.mutate(ctx, actor, id, "suspended", func(l *entity.License, _ time.Time) error {
		l.Status = entity.LicenseStatusSuspended
		l.SuspendedReason = reason
		return nil
	})
}

// Reactivate levanta la suspensión; la licencia vuelve al estado que le corresponde por su historia.
func (uc *UseCase) Reactivate(ctx context.Context, actor entity.Actor, id string) (*View, error) {
	return uc.mutate(ctx, actor, id, "reactivated", func(l *entity.License, _ time.Time) error {
		if l.Status != entity.LicenseStatusSuspended {
			return fmt.Errorf("%w: la licencia no está suspendida", domain.ErrConflict)
		}
		l.SuspendedReason = ""
		l.Status = domlicense.ResumeStatus(l)
		return nil
	})
}

// RenewInput nueva fecha de vencimiento o días adicionales (exactamente uno).
type RenewInput struct {
	ExpiresAt *time.Time
	ExtraDays int
}

// Renew extiende el vencimiento. Con ExtraDays se suma desde el vencimiento actual o desde now si ya pasó.
func (uc *UseCase) Renew(ctx context.Context, actor entity.Actor, id string, in RenewInput) (*View, error) {
	if (in.ExpiresAt == nil) == (in.ExtraDays <= 0) {
		return nil, fmt.Errorf("%w: indique expires_at o extra_days", domain.ErrValidation)
	}
	return uc.mutate(ctx, actor, id, "renewed", func(l *entity.License, now time.Time) error {
		if l.Status == entity.LicenseStatusSuspended {
			return domain.ErrSuspended
		}
		var exp time.Time
		if in.ExpiresAt != nil {
			exp = *in.ExpiresAt
		} else {
			base := now
			if l.ExpiresAt != nil && l.ExpiresAt.After(now) {
				base = *l.ExpiresAt
			}
			exp = base.AddDate(0, 0, in.ExtraDays)
		}
		if !exp.After(now) {
			return fmt.Errorf("%w: la fecha de vencimiento debe ser futura", domain.ErrValidation)
		}
		l.ExpiresAt = &exp
		if l.Status == entity.LicenseStatusExpired {
			l.Status = domlicense.ResumeStatus(l)
		}
		return nil
	})
}

// ResetBinding libera el equipo vinculado; la siguiente activación genera una llave de equipo nueva.
// La fecha de primera activación se conserva.
func (uc *UseCase) ResetBinding(ctx context.Context, actor entity.Actor, id string) (*View, error) {
	return uc.mutate(ctx, actor, id, "binding_reset", func(l *entity.License, _ time.Time) error {
		l.ComputerKey = nil
		l.DeviceID = nil
		return nil
	})
}

// mutate verifica alcance, bloquea la licencia y aplica fn en una transacción.
func (uc *UseCase) mutate(ctx context.Context, actor entity.Actor, id, event string, fn func(l *entity.License, now time.Time) error) (*View, error) {
	if _, _, err := uc.loadScoped(ctx, actor, id); err != nil {
		return nil, err
	}
	now := uc.nowFn()
	var updated *entity.License
	err := uc.txRunner.RunLicense(ctx, func(licenses repository.LicenseRepository) error {
		l, err := licenses.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}
		if err := fn(l, now); err != nil {
			return err
		}
		l.UpdatedAt = now
		if err := licenses.Update(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("license_id", id).Str("event", event).Str("user_id", actor.UserID).Msg("licencia modificada")
	uc.publishChange(ctx, updated, event)
	return newView(updated, now), nil
}

// loadScoped carga licencia y cliente y verifica que el actor pueda verlos.
func (uc *UseCase) loadScoped(ctx context.Context, actor entity.Actor, id string) (*entity.License, *entity.Client, error) {
	l, err := uc.licenses.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if l == nil {
		return nil, nil, domain.ErrNotFound
	}
	client, err := uc.clients.GetByID(ctx, l.ClientID)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, fmt.Errorf("cliente: %w", domain.ErrNotFound)
	}
	if err := uc.authorizer.CanAccessOwner(ctx, actor, client.CompanyID); err != nil {
		return nil, nil, err
	}
	return l, client, nil
}

func (uc *UseCase) publishChange(ctx context.Context, l *entity.License, event string) {
	if err := uc.publisher.Publish(ctx, ports.SubjectLicenseChanged, map[string]any{
		"license_id": l.ID,
		"event":      event,
		"status":     l.Status,
		"expires_at": l.ExpiresAt,
	}); err != nil {
		uc.log.Warn().Err(err).Str("license_id", l.ID).Msg("no se pudo publicar cambio de licencia")
	}
}
