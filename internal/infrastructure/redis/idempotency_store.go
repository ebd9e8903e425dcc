// Package redis guarda en Redis las llaves de idempotencia de las operaciones mutantes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
)

const keyPrefix = "licencias:idem:"

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// Connect inicializa un cliente desde una URL redis:// o una dirección host:port.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	var client *goredis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = goredis.NewClient(opt)
	} else {
		client = goredis.NewClient(&goredis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// IdempotencyStore implementa ports.IdempotencyStore con SET NX + TTL.
type IdempotencyStore struct {
	client *goredis.Client
}

// NewIdempotencyStore crea el adaptador.
func NewIdempotencyStore(client *goredis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve marca la llave como en curso solo si no existe (SET NX).
func (s *IdempotencyStore) Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(ports.IdempotentResponse{RequestHash: requestHash})
	if err != nil {
		return false, err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+key, raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Get devuelve la entrada de la llave o nil si no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotentResponse, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	var resp ports.IdempotentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &resp, nil
}

// Complete guarda la respuesta final con su TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp ports.IdempotentResponse, ttl time.Duration) error {
	resp.Completed = true
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release borra una reserva para permitir reintentos.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
