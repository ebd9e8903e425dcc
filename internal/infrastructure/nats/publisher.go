// Package nats publica los eventos de dominio (activaciones, cambios de licencia,
// movimientos de billetera y bitácoras) en NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// conn subconjunto de *nats.Conn usado por el publicador.
type conn interface {
	Publish(subject string, data []byte) error
}

// Envelope sobre común de todos los eventos.
type Envelope struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher implementa ports.EventPublisher sobre una conexión NATS.
type Publisher struct {
	nc     conn
	prefix string
	log    zerolog.Logger
	nowFn  func() time.Time
}

// Connect abre la conexión con reconexión automática.
func Connect(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats desconectado")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconectado")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// NewPublisher construye el publicador. prefix se antepone a cada asunto ("licencias.license.activated").
func NewPublisher(nc *nats.Conn, prefix string, log zerolog.Logger) *Publisher {
	return newPublisher(nc, prefix, log)
}

func newPublisher(nc conn, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{nc: nc, prefix: strings.Trim(prefix, "."), log: log, nowFn: time.Now}
}

// Subject asunto completo para un evento.
func (p *Publisher) Subject(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

// Publish serializa payload dentro de un Envelope y lo publica. No espera confirmación del servidor.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", subject, err)
	}
	full := p.Subject(subject)
	env, err := json.Marshal(Envelope{
		ID:         uuid.New().String(),
		Subject:    full,
		OccurredAt: p.nowFn().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", subject, err)
	}
	if err := p.nc.Publish(full, env); err != nil {
		p.log.Warn().Err(err).Str("subject", full).Msg("no se pudo publicar evento")
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}
