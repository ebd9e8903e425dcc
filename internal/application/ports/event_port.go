package ports

import "context"

// Asuntos de eventos publicados por la aplicación.
const (
	SubjectLicenseActivated = "license.activated"
	SubjectLicenseChanged   = "license.changed"
	SubjectWalletLedger     = "wallet.ledger"
	SubjectActivationLog    = "audit.activation"
)

// EventPublisher publica eventos de dominio hacia un bus externo (mejor esfuerzo).
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NoopPublisher no publica nada; se usa cuando el bus no está configurado.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
