package licensefile_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/licensefile"
)

func selfSigned(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "licencias-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

func sampleDocument() license.Document {
	computer := "CK-123"
	device := "device-1"
	activated := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	expires := activated.AddDate(1, 0, 0)
	return license.Document{
		License: &entity.License{
			ID:            "lic-1",
			ActivationKey: "ABCDE-FGHIJ-KLMNO-PQRST",
			ComputerKey:   &computer,
			DeviceID:      &device,
			LicenseType:   entity.LicenseTypeSubscription,
			ActivatedAt:   &activated,
			ExpiresAt:     &expires,
		},
		EffectiveStatus: entity.LicenseStatusActive,
		Client:          &entity.Client{ID: "cli-1", Name: "Cliente & Hijos", NIT: "900123456"},
		Product:         &entity.Product{ID: "prod-1", Name: "Contable", Version: "2.0", MaxUsers: 3, MaxDevices: 1},
		Issuer:          "Licencias",
		IssuedAt:        activated,
	}
}

func TestSignLicense_Verifica(t *testing.T) {
	signer, err := licensefile.NewSigner(selfSigned(t))
	require.NoError(t, err)

	out, err := signer.SignLicense(sampleDocument())
	require.NoError(t, err)
	assert.Contains(t, string(out), "<ds:Signature")
	assert.Contains(t, string(out), "ABCDE-FGHIJ-KLMNO-PQRST")

	require.NoError(t, signer.Verify(out))
}

func TestVerify_DetectaAlteracion(t *testing.T) {
	signer, err := licensefile.NewSigner(selfSigned(t))
	require.NoError(t, err)

	out, err := signer.SignLicense(sampleDocument())
	require.NoError(t, err)

	tampered := bytes.Replace(out, []byte("2027-09-01"), []byte("2099-09-01"), 1)
	require.NotEqual(t, out, tampered)
	assert.ErrorIs(t, signer.Verify(tampered), licensefile.ErrInvalidSignature)
}

func TestVerify_OtroCertificado(t *testing.T) {
	a, err := licensefile.NewSigner(selfSigned(t))
	require.NoError(t, err)
	b, err := licensefile.NewSigner(selfSigned(t))
	require.NoError(t, err)

	out, err := a.SignLicense(sampleDocument())
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(out), licensefile.ErrInvalidSignature)
}

func TestNewSigner_SinLlaveRSA(t *testing.T) {
	_, err := licensefile.NewSigner(tls.Certificate{})
	assert.Error(t, err)
}

func TestLoadCertificate_RutaVacia(t *testing.T) {
	_, err := licensefile.LoadCertificate("", "", "")
	assert.Error(t, err)
}
