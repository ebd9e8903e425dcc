// Package audit escribe las bitácoras de activación y acceso fuera del camino de la petición.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var _ ports.AuditSink = (*Sink)(nil)

const writeTimeout = 5 * time.Second

type record struct {
	activation *entity.ActivationLog
	access     *entity.AccessLog
}

// Sink cola acotada con un único escritor. Si la cola está llena la entrada se descarta
// con una advertencia: la operación que la originó ya respondió.
type Sink struct {
	repo      repository.AuditRepository
	publisher ports.EventPublisher
	log       zerolog.Logger

	queue chan record
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSink arranca el escritor. publisher puede ser nil.
func NewSink(repo repository.AuditRepository, publisher ports.EventPublisher, bufferSize int, log zerolog.Logger) *Sink {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	s := &Sink{
		repo:      repo,
		publisher: publisher,
		log:       log,
		queue:     make(chan record, bufferSize),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sink) RecordActivation(l *entity.ActivationLog) {
	if l == nil {
		return
	}
	s.enqueue(record{activation: l}, "activation")
}

func (s *Sink) RecordAccess(l *entity.AccessLog) {
	if l == nil {
		return
	}
	s.enqueue(record{access: l}, "access")
}

func (s *Sink) enqueue(r record, kind string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.Warn().Str("kind", kind).Msg("bitácora descartada: sink cerrado")
		return
	}
	select {
	case s.queue <- r:
	default:
		s.log.Warn().Str("kind", kind).Msg("bitácora descartada: cola llena")
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for r := range s.queue {
		s.write(r)
	}
}

func (s *Sink) write(r record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch {
	case r.activation != nil:
		if err := s.repo.InsertActivationLog(ctx, r.activation); err != nil {
			s.log.Error().Err(err).Str("presented_key_type", r.activation.KeyType).Msg("no se pudo guardar la bitácora de activación")
		}
		_ = s.publisher.Publish(ctx, ports.SubjectActivationLog, r.activation)
	case r.access != nil:
		if err := s.repo.InsertAccessLog(ctx, r.access); err != nil {
			s.log.Error().Err(err).Str("path", r.access.Path).Msg("no se pudo guardar la bitácora de acceso")
		}
	}
}

// Close deja de aceptar entradas y espera a que se escriban las pendientes o a que ctx expire.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
