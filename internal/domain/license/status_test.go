package license_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/license"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func licWith(status string, expiresAt *time.Time) *entity.License {
	return &entity.License{ID: "lic-1", Status: status, ExpiresAt: expiresAt, LicenseType: entity.LicenseTypeSubscription}
}

func ptrTime(t time.Time) *time.Time { return &t }

// ──────────────────────────────────────────────────────────────────────────────
// ComputeStatus
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeStatus_VencidaAyer(t *testing.T) {
	l := licWith(entity.LicenseStatusActive, ptrTime(testNow.AddDate(0, 0, -1)))
	assert.Equal(t, entity.LicenseStatusExpired, license.ComputeStatus(l, testNow))
}

func TestComputeStatus_Idempotente(t *testing.T) {
	l := licWith(entity.LicenseStatusActive, ptrTime(testNow.Add(-time.Hour)))
	first := license.ComputeStatus(l, testNow)
	second := license.ComputeStatus(l, testNow)
	assert.Equal(t, first, second)
	assert.Equal(t, entity.LicenseStatusActive, l.Status, "no debe modificar la licencia")
}

func TestComputeStatus_FronteraExacta(t *testing.T) {
	expiry := testNow
	l := licWith(entity.LicenseStatusActive, &expiry)

	assert.Equal(t, entity.LicenseStatusActive, license.ComputeStatus(l, expiry.Add(-time.Second)),
		"un segundo antes sigue activa")
	assert.Equal(t, entity.LicenseStatusActive, license.ComputeStatus(l, expiry),
		"en el instante exacto sigue activa")
	assert.Equal(t, entity.LicenseStatusExpired, license.ComputeStatus(l, expiry.Add(time.Second)),
		"un segundo después está vencida")
}

func TestComputeStatus_SuspendidaNoCambia(t *testing.T) {
	l := licWith(entity.LicenseStatusSuspended, ptrTime(testNow.AddDate(0, -1, 0)))
	assert.Equal(t, entity.LicenseStatusSuspended, license.ComputeStatus(l, testNow))
}

func TestComputeStatus_SinVencimiento(t *testing.T) {
	l := licWith(entity.LicenseStatusActive, nil)
	assert.Equal(t, entity.LicenseStatusActive, license.ComputeStatus(l, testNow.AddDate(50, 0, 0)))
}

func TestComputeStatus_DemoYPendienteVencen(t *testing.T) {
	past := ptrTime(testNow.Add(-time.Minute))
	assert.Equal(t, entity.LicenseStatusExpired, license.ComputeStatus(licWith(entity.LicenseStatusDemo, past), testNow))
	assert.Equal(t, entity.LicenseStatusExpired, license.ComputeStatus(licWith(entity.LicenseStatusPendingValidation, past), testNow))
}

// ──────────────────────────────────────────────────────────────────────────────
// FilterExpiring
// ──────────────────────────────────────────────────────────────────────────────

func TestFilterExpiring_ExcluyeVencidasYOrdena(t *testing.T) {
	yesterday := licWith(entity.LicenseStatusActive, ptrTime(testNow.AddDate(0, 0, -1)))
	in20 := licWith(entity.LicenseStatusActive, ptrTime(testNow.AddDate(0, 0, 20)))
	in20.ID = "in20"
	in5 := licWith(entity.LicenseStatusActive, ptrTime(testNow.AddDate(0, 0, 5)))
	in5.ID = "in5"
	in40 := licWith(entity.LicenseStatusActive, ptrTime(testNow.AddDate(0, 0, 40)))
	noExpiry := licWith(entity.LicenseStatusActive, nil)

	out := license.FilterExpiring([]*entity.License{yesterday, in20, in40, in5, noExpiry}, testNow, 30)

	require.Len(t, out, 2)
	assert.Equal(t, "in5", out[0].ID, "la más próxima primero")
	assert.Equal(t, "in20", out[1].ID)
}

func TestFilterExpiring_Limites(t *testing.T) {
	atNow := licWith(entity.LicenseStatusActive, ptrTime(testNow))
	atHorizon := licWith(entity.LicenseStatusActive, ptrTime(testNow.Add(30*24*time.Hour)))
	afterHorizon := licWith(entity.LicenseStatusActive, ptrTime(testNow.Add(30*24*time.Hour+time.Second)))

	assert.False(t, license.IsExpiring(atNow, testNow, 30), "now < expiry es estricto")
	assert.True(t, license.IsExpiring(atHorizon, testNow, 30), "expiry <= now+horizonte incluye el borde")
	assert.False(t, license.IsExpiring(afterHorizon, testNow, 30))
	assert.False(t, license.IsExpiring(atHorizon, testNow, 0), "horizonte cero no devuelve nada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados derivados y llaves
// ──────────────────────────────────────────────────────────────────────────────

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, entity.LicenseStatusDemo, license.InitialStatus(entity.LicenseTypeTrial))
	assert.Equal(t, entity.LicenseStatusPendingValidation, license.InitialStatus(entity.LicenseTypeSubscription))
	assert.Equal(t, entity.LicenseStatusPendingValidation, license.InitialStatus(entity.LicenseTypePerpetual))
}

func TestExpiryOnActivation(t *testing.T) {
	l := &entity.License{DurationDays: 365}
	exp := license.ExpiryOnActivation(l, testNow)
	require.NotNil(t, exp)
	assert.Equal(t, testNow.AddDate(1, 0, 0), *exp)

	l.ExpiresAt = exp
	assert.Nil(t, license.ExpiryOnActivation(l, testNow), "no recalcula si ya tiene vencimiento")
	assert.Nil(t, license.ExpiryOnActivation(&entity.License{}, testNow), "perpetua no vence")
}

func TestGenerateActivationKey_Formato(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := license.GenerateActivationKey()
		require.NoError(t, err)
		assert.True(t, license.IsWellFormedActivationKey(key), "formato inválido: %s", key)
		assert.False(t, seen[key], "llave repetida")
		seen[key] = true
	}
	assert.False(t, license.IsWellFormedActivationKey("ABCDE-ABCDE"))
	assert.False(t, license.IsWellFormedActivationKey("00000-11111-22222-33333"))
}

func TestGenerateComputerKey(t *testing.T) {
	a, err := license.GenerateComputerKey()
	require.NoError(t, err)
	b, err := license.GenerateComputerKey()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
