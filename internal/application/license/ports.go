package license

import (
	"context"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción de BD con el repositorio de licencias atado a esa tx.
type TxRunner interface {
	RunLicense(ctx context.Context, fn func(licenses repository.LicenseRepository) error) error
}

// Authorizer alcance del actor sobre las empresas dueñas de los clientes.
type Authorizer interface {
	RequireSuperAdmin(actor entity.Actor) error
	CanAccessOwner(ctx context.Context, actor entity.Actor, ownerID *string) error
	ScopeCompanyIDs(ctx context.Context, actor entity.Actor) ([]string, error)
}

// Document datos de una licencia para exportarla (archivo firmado o certificado PDF).
type Document struct {
	License         *entity.License
	EffectiveStatus string
	Client          *entity.Client
	Product         *entity.Product
	Issuer          string
	IssuedAt        time.Time
}

// FileSigner produce el archivo de licencia offline firmado.
type FileSigner interface {
	SignLicense(doc Document) ([]byte, error)
}

// CertificateRenderer genera el certificado PDF de la licencia.
type CertificateRenderer interface {
	RenderCertificate(doc Document) ([]byte, error)
}
