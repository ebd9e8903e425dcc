package ports

import (
	"context"
	"time"
)

// IdempotentResponse respuesta almacenada para una llave de idempotencia.
type IdempotentResponse struct {
	RequestHash string `json:"request_hash"`
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	Completed   bool   `json:"completed"`
}

// IdempotencyStore guarda respuestas de operaciones mutantes por llave del cliente.
type IdempotencyStore interface {
	// Reserve marca la llave como en curso. Devuelve false si ya existía.
	Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (bool, error)
	// Get devuelve la entrada de la llave o nil si no existe.
	Get(ctx context.Context, key string) (*IdempotentResponse, error)
	// Complete guarda la respuesta final.
	Complete(ctx context.Context, key string, resp IdempotentResponse, ttl time.Duration) error
	// Release libera una reserva cuya operación falló, para permitir reintentos del cliente.
	Release(ctx context.Context, key string) error
}
