package license_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/memory"
)

var (
	t0   = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	root = entity.Actor{UserID: "u-root", Role: entity.RoleSuperAdmin}
)

type captureSink struct {
	mu   sync.Mutex
	logs []*entity.ActivationLog
}

func (s *captureSink) RecordActivation(l *entity.ActivationLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
}

func (s *captureSink) RecordAccess(*entity.AccessLog) {}

func (s *captureSink) last() *entity.ActivationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return nil
	}
	return s.logs[len(s.logs)-1]
}

type fixture struct {
	store      *memory.Store
	now        time.Time
	sink       *captureSink
	licenses   *license.UseCase
	activation *license.ActivationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	f := &fixture{store: store, now: t0, sink: &captureSink{}}
	clock := func() time.Time { return f.now }

	parent := "reseller"
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: parent, Name: "Distribuidor", NIT: "900", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "agent", Name: "Agente", NIT: "901", Type: entity.CompanyTypeAgent, ParentID: &parent, Status: entity.CompanyStatusActive}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "other", Name: "Otro", NIT: "902", Type: entity.CompanyTypeReseller, Status: entity.CompanyStatusActive}))

	owner := "agent"
	require.NoError(t, store.Clients().Create(ctx, &entity.Client{ID: "cli", CompanyID: &owner, Name: "Cliente", Status: entity.ClientStatusValidated}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "sub", Name: "ERP", Version: "1", Price: decimal.NewFromInt(100), LicenseType: entity.LicenseTypeSubscription, DurationDays: 365, Active: true}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "trial", Name: "ERP", Version: "demo", LicenseType: entity.LicenseTypeTrial, TrialDays: 15, Active: true}))

	tx := memory.NewTxRunner(store)
	authz := access.NewAuthorizer(store.Companies())
	f.licenses = license.NewUseCase(tx, store.Licenses(), store.Clients(), store.Products(), authz, nil, nil, zerolog.Nop()).WithClock(clock)
	f.activation = license.NewActivationUseCase(tx, store.Licenses(), f.sink, nil, nil, zerolog.Nop()).WithClock(clock)
	return f
}

func (f *fixture) issue(t *testing.T, productID string) *license.View {
	t.Helper()
	v, err := f.licenses.Issue(context.Background(), root, license.IssueInput{ClientID: "cli", ProductID: productID})
	require.NoError(t, err)
	return v
}

func (f *fixture) activate(t *testing.T, key, device string) license.ActivationResult {
	t.Helper()
	res, err := f.activation.Activate(context.Background(), license.ActivateInput{
		ActivationKey: key, DeviceID: device, DeviceInfo: []byte(`{"os":"windows"}`), IP: "10.0.0.1", UserAgent: "erp/1.0",
	})
	require.NoError(t, err)
	return res
}

func TestIssue_EstadoInicial(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "sub")
	assert.Equal(t, entity.LicenseStatusPendingValidation, v.EffectiveStatus)
	assert.Equal(t, 365, v.License.DurationDays)
	assert.Nil(t, v.License.ExpiresAt)
	assert.Len(t, v.License.ActivationKey, 23)

	demo := f.issue(t, "trial")
	assert.Equal(t, entity.LicenseStatusDemo, demo.EffectiveStatus)
	assert.Equal(t, 15, demo.License.DurationDays)
}

func TestIssue_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.licenses.Issue(ctx, root, license.IssueInput{ClientID: "nope", ProductID: "sub"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	past := t0.Add(-time.Hour)
	_, err = f.licenses.Issue(ctx, root, license.IssueInput{ClientID: "cli", ProductID: "sub", ExpiresAt: &past})
	assert.ErrorIs(t, err, domain.ErrValidation)

	outsider := entity.Actor{UserID: "x", CompanyID: "other", Role: entity.RoleAdmin}
	_, err = f.licenses.Issue(ctx, outsider, license.IssueInput{ClientID: "cli", ProductID: "sub"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	reseller := entity.Actor{UserID: "y", CompanyID: "reseller", Role: entity.RoleOperator}
	_, err = f.licenses.Issue(ctx, reseller, license.IssueInput{ClientID: "cli", ProductID: "sub"})
	assert.NoError(t, err, "el distribuidor ve los clientes de su agente")
}

func TestActivate_PrimeraActivacion(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "sub")

	res := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, res.Success, res.Message)
	assert.True(t, res.FirstActivation)
	assert.Equal(t, entity.LicenseStatusActive, res.Status)
	assert.Len(t, res.ComputerKey, 32)
	require.NotNil(t, res.ActivatedAt)
	assert.True(t, res.ActivatedAt.Equal(t0))
	require.NotNil(t, res.ExpiresAt)
	assert.True(t, res.ExpiresAt.Equal(t0.AddDate(0, 0, 365)))

	log := f.sink.last()
	require.NotNil(t, log)
	assert.Equal(t, entity.ActivationResultSuccess, log.Result)
	assert.Equal(t, entity.KeyTypeActivation, log.KeyType)
	assert.Equal(t, "10.0.0.1", log.IP)
	assert.Equal(t, v.License.ID, *log.LicenseID)
}

func TestActivate_MismoEquipoEsIdempotente(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "sub")
	first := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, first.Success)

	f.now = t0.Add(48 * time.Hour)
	again := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, again.Success)
	assert.False(t, again.FirstActivation)
	assert.Equal(t, first.ComputerKey, again.ComputerKey)
	assert.True(t, again.ActivatedAt.Equal(*first.ActivatedAt), "la fecha de activación no cambia")
}

func TestActivate_OtroEquipoAlreadyBound(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "sub")
	require.True(t, f.activate(t, v.License.ActivationKey, "device-A").Success)

	res := f.activate(t, v.License.ActivationKey, "device-B")
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrAlreadyBound)
	assert.Equal(t, domain.CodeAlreadyBound, res.Code)

	log := f.sink.last()
	assert.Equal(t, entity.ActivationResultFailure, log.Result)
	assert.Equal(t, domain.CodeAlreadyBound, log.ErrorCode)
	assert.NotEmpty(t, log.ErrorMessage)
}

func TestActivate_LlaveDesconocida(t *testing.T) {
	f := newFixture(t)
	res := f.activate(t, "AAAAA-BBBBB-CCCCC-DDDDD", "device-A")
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)

	res = f.activate(t, "no-es-una-llave", "device-A")
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)

	res = f.activate(t, "", "device-A")
	assert.ErrorIs(t, res.Err, domain.ErrValidation)

	log := f.sink.last()
	assert.Nil(t, log.LicenseID)
	assert.Equal(t, entity.ActivationResultFailure, log.Result)
}

func TestActivate_VencidaYSuspendida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := t0.Add(-24 * time.Hour)

	v := f.issue(t, "sub")
	stored, err := f.store.Licenses().GetByID(ctx, v.License.ID)
	require.NoError(t, err)
	stored.ExpiresAt = &yesterday
	require.NoError(t, f.store.Licenses().Update(ctx, stored))
	assert.ErrorIs(t, f.activate(t, v.License.ActivationKey, "device-A").Err, domain.ErrExpired)

	s := f.issue(t, "sub")
	_, err = f.licenses.Suspend(ctx, root, s.License.ID, "falta de pago")
	require.NoError(t, err)
	assert.ErrorIs(t, f.activate(t, s.License.ActivationKey, "device-A").Err, domain.ErrSuspended)
}

func TestActivate_DemoSigueSiendoDemo(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "trial")
	res := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, res.Success)
	assert.Equal(t, entity.LicenseStatusDemo, res.Status)
	assert.True(t, res.ExpiresAt.Equal(t0.AddDate(0, 0, 15)))
}

func TestActivate_ConcurrenteUnSoloEquipo(t *testing.T) {
	f := newFixture(t)
	v := f.issue(t, "sub")

	var wg sync.WaitGroup
	results := make([]license.ActivationResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.activate(t, v.License.ActivationKey, "device-"+string(rune('A'+i)))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			assert.ErrorIs(t, r.Err, domain.ErrAlreadyBound)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.issue(t, "sub")

	res, err := f.activation.Validate(ctx, license.ValidateInput{ActivationKey: v.License.ActivationKey, ComputerKey: "X", DeviceID: "device-A"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrValidation, "aún no activada")

	act := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, act.Success)

	res, err = f.activation.Validate(ctx, license.ValidateInput{ActivationKey: v.License.ActivationKey, ComputerKey: act.ComputerKey, DeviceID: "device-A"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, entity.KeyTypeComputer, f.sink.last().KeyType)

	res, err = f.activation.Validate(ctx, license.ValidateInput{ActivationKey: v.License.ActivationKey, ComputerKey: "OTRA", DeviceID: "device-A"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrAlreadyBound)

	f.now = act.ExpiresAt.Add(time.Second)
	res, err = f.activation.Validate(ctx, license.ValidateInput{ActivationKey: v.License.ActivationKey, ComputerKey: act.ComputerKey, DeviceID: "device-A"})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, domain.ErrExpired)
}

func TestListExpiring_ExcluyeVencidasYOrdena(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	set := func(v *license.View, exp time.Time) {
		l, err := f.store.Licenses().GetByID(ctx, v.License.ID)
		require.NoError(t, err)
		l.ExpiresAt = &exp
		l.Status = entity.LicenseStatusActive
		require.NoError(t, f.store.Licenses().Update(ctx, l))
	}
	yesterday, in10, in3, in40 := f.issue(t, "sub"), f.issue(t, "sub"), f.issue(t, "sub"), f.issue(t, "sub")
	set(yesterday, t0.Add(-24*time.Hour))
	set(in10, t0.AddDate(0, 0, 10))
	set(in3, t0.AddDate(0, 0, 3))
	set(in40, t0.AddDate(0, 0, 40))

	list, err := f.licenses.ListExpiring(ctx, root, t0, 30)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, in3.License.ID, list[0].License.ID)
	assert.Equal(t, in10.License.ID, list[1].License.ID)

	got, err := f.licenses.Get(ctx, root, yesterday.License.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusExpired, got.EffectiveStatus)
	assert.Equal(t, entity.LicenseStatusActive, got.License.Status, "el estado almacenado no se toca en la lectura")

	outsider := entity.Actor{UserID: "x", CompanyID: "other", Role: entity.RoleAdmin}
	list, err = f.licenses.ListExpiring(ctx, outsider, t0, 30)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.licenses.ListExpiring(ctx, root, t0, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSuspenderReactivarRenovar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.issue(t, "sub")
	act := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, act.Success)

	_, err := f.licenses.Suspend(ctx, root, v.License.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	s, err := f.licenses.Suspend(ctx, root, v.License.ID, "revisión")
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusSuspended, s.EffectiveStatus)

	_, err = f.licenses.Renew(ctx, root, v.License.ID, license.RenewInput{ExtraDays: 30})
	assert.ErrorIs(t, err, domain.ErrSuspended)

	r, err := f.licenses.Reactivate(ctx, root, v.License.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusActive, r.EffectiveStatus)
	assert.Empty(t, r.License.SuspendedReason)

	_, err = f.licenses.Reactivate(ctx, root, v.License.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	renewed, err := f.licenses.Renew(ctx, root, v.License.ID, license.RenewInput{ExtraDays: 30})
	require.NoError(t, err)
	assert.True(t, renewed.License.ExpiresAt.Equal(act.ExpiresAt.AddDate(0, 0, 30)))

	_, err = f.licenses.Renew(ctx, root, v.License.ID, license.RenewInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRenew_LicenciaVencidaVuelveActiva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.issue(t, "sub")
	act := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, act.Success)

	f.now = act.ExpiresAt.Add(72 * time.Hour)
	_, err := f.licenses.Sweep(ctx, f.now)
	require.NoError(t, err)

	renewed, err := f.licenses.Renew(ctx, root, v.License.ID, license.RenewInput{ExtraDays: 10})
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusActive, renewed.EffectiveStatus)
	assert.True(t, renewed.License.ExpiresAt.Equal(f.now.AddDate(0, 0, 10)), "se renueva desde hoy, no desde el vencimiento")
}

func TestResetBinding_PermiteOtroEquipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.issue(t, "sub")
	first := f.activate(t, v.License.ActivationKey, "device-A")
	require.True(t, first.Success)

	_, err := f.licenses.ResetBinding(ctx, root, v.License.ID)
	require.NoError(t, err)

	second := f.activate(t, v.License.ActivationKey, "device-B")
	require.True(t, second.Success)
	assert.NotEqual(t, first.ComputerKey, second.ComputerKey)
	assert.False(t, second.FirstActivation)
	assert.True(t, second.ActivatedAt.Equal(*first.ActivatedAt))
}

func TestSweep_PersisteEstadoCalculado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.issue(t, "sub"), f.issue(t, "sub")
	require.True(t, f.activate(t, a.License.ActivationKey, "d1").Success)
	require.True(t, f.activate(t, b.License.ActivationKey, "d2").Success)
	_, err := f.licenses.Suspend(ctx, root, b.License.ID, "fraude")
	require.NoError(t, err)

	later := t0.AddDate(0, 0, 400)
	res, err := f.licenses.Sweep(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned, "la suspendida es terminal")
	assert.Equal(t, 1, res.Updated)

	stored, err := f.store.Licenses().GetByID(ctx, a.License.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LicenseStatusExpired, stored.Status)

	again, err := f.licenses.Sweep(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, again.Updated)
}

func TestList_FiltraPorEstadoVigente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.issue(t, "sub")
	f.issue(t, "sub")
	require.True(t, f.activate(t, a.License.ActivationKey, "d1").Success)

	active, err := f.licenses.List(ctx, root, license.ListInput{Status: entity.LicenseStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.License.ID, active[0].License.ID)

	all, err := f.licenses.List(ctx, root, license.ListInput{ClientID: "cli"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
