package license

import (
	"context"
	"fmt"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// ExportFile devuelve el archivo de licencia offline firmado. Solo licencias vinculadas y vigentes.
func (uc *UseCase) ExportFile(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	if uc.signer == nil {
		return nil, fmt.Errorf("firma de licencias no configurada")
	}
	doc, err := uc.document(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !doc.License.IsBound() {
		return nil, fmt.Errorf("%w: la licencia no ha sido activada en ningún equipo", domain.ErrValidation)
	}
	switch doc.EffectiveStatus {
	case entity.LicenseStatusSuspended:
		return nil, domain.ErrSuspended
	case entity.LicenseStatusExpired:
		return nil, domain.ErrExpired
	}
	return uc.signer.SignLicense(*doc)
}

// Certificate genera el certificado PDF de la licencia.
func (uc *UseCase) Certificate(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("generador de certificados no configurado")
	}
	doc, err := uc.document(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderCertificate(*doc)
}

func (uc *UseCase) document(ctx context.Context, actor entity.Actor, id string) (*Document, error) {
	l, client, err := uc.loadScoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	product, err := uc.products.GetByID(ctx, l.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}
	now := uc.nowFn()
	return &Document{
		License:         l,
		EffectiveStatus: newView(l, now).EffectiveStatus,
		Client:          client,
		Product:         product,
		Issuer:          uc.issuer,
		IssuedAt:        now,
	}, nil
}
