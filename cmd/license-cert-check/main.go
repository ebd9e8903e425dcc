// license-cert-check diagnostica el material de firma de los archivos de licencia: carga el
// certificado configurado (LICENSE_SIGNING_*), muestra su vigencia y firma y verifica una
// licencia de prueba. Sale con código 1 si algún paso falla.
//
// Uso: go run ./cmd/license-cert-check
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/licensefile"
	"github.com/jhoicas/Licencias-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("configuración", err)
	}
	if !cfg.License.SigningEnabled() {
		fmt.Println("LICENSE_SIGNING_CERT_PATH vacío: la firma de licencias está deshabilitada")
		os.Exit(1)
	}

	fmt.Printf("Leyendo certificado: %s\n", cfg.License.SigningCertPath)
	cert, err := licensefile.LoadCertificate(cfg.License.SigningCertPath, cfg.License.SigningKeyPath, cfg.License.P12Password)
	if err != nil {
		fail("cargar certificado (ruta, contraseña o formato)", err)
	}
	signer, err := licensefile.NewSigner(cert)
	if err != nil {
		fail("preparar firmador", err)
	}

	x := signer.Certificate()
	now := time.Now()
	fmt.Printf("Sujeto:   %s\n", x.Subject.String())
	fmt.Printf("Emisor:   %s\n", x.Issuer.String())
	fmt.Printf("Vigencia: %s a %s\n", x.NotBefore.Format(time.DateOnly), x.NotAfter.Format(time.DateOnly))
	switch {
	case now.After(x.NotAfter):
		fmt.Println("ADVERTENCIA: el certificado está vencido")
	case x.NotAfter.Sub(now) < 30*24*time.Hour:
		fmt.Printf("ADVERTENCIA: el certificado vence en %d días\n", int(x.NotAfter.Sub(now).Hours()/24))
	}

	computerKey := "diagnostico"
	deviceID := "equipo-diagnostico"
	out, err := signer.SignLicense(license.Document{
		License: &entity.License{
			ID:            "00000000-0000-0000-0000-000000000000",
			ActivationKey: "DIAG-DIAG-DIAG-DIAG",
			ComputerKey:   &computerKey,
			DeviceID:      &deviceID,
			LicenseType:   entity.LicenseTypePerpetual,
			ActivatedAt:   &now,
		},
		EffectiveStatus: entity.LicenseStatusActive,
		Issuer:          cfg.License.Issuer,
		IssuedAt:        now,
	})
	if err != nil {
		fail("firmar licencia de prueba", err)
	}
	if err := signer.Verify(out); err != nil {
		fail("verificar licencia de prueba", err)
	}
	fmt.Printf("Firma y verificación correctas (%d bytes)\n", len(out))
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR en %s: %v\n", step, err)
	os.Exit(1)
}
