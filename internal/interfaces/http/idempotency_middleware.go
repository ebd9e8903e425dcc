package http

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/application/ports"
)

// HeaderIdempotencyKey llave que envía el cliente para reintentar sin duplicar efectos.
const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replay"
	maxIdempotencyKeyLength = 128
)

// Idempotency guarda la respuesta de las operaciones mutantes por llave (y usuario) y la repite
// en los reintentos. Las respuestas 5xx liberan la llave para que el cliente pueda reintentar.
// Sin cabecera, o sin store configurado, la petición pasa tal cual.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if store == nil || key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLength {
			return badRequest(c, "VALIDATION", "Idempotency-Key demasiado larga")
		}

		scoped := GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + key
		sum := sha256.Sum256(c.Body())
		requestHash := hex.EncodeToString(sum[:])

		reserved, err := store.Reserve(c.UserContext(), scoped, requestHash, ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotencia: no se pudo reservar la llave")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la idempotencia, intente más tarde"})
		}
		if !reserved {
			return replay(c, store, scoped, requestHash)
		}

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Release(c.UserContext(), scoped); err != nil {
				log.Warn().Err(err).Msg("idempotencia: no se pudo liberar la llave")
			}
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Complete(c.UserContext(), scoped, ports.IdempotentResponse{
			RequestHash: requestHash,
			StatusCode:  status,
			Body:        body,
		}, ttl); err != nil {
			log.Warn().Err(err).Msg("idempotencia: no se pudo guardar la respuesta")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store ports.IdempotencyStore, key, requestHash string) error {
	prev, err := store.Get(c.UserContext(), key)
	if err != nil {
		return err
	}
	if prev == nil {
		// La entrada expiró entre Reserve y Get.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_RETRY", Message: "reintente la petición"})
	}
	if prev.RequestHash != requestHash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: "la llave ya se usó con otro cuerpo"})
	}
	if !prev.Completed {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "la operación con esta llave sigue en curso"})
	}
	c.Set(HeaderIdempotentReplay, "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(prev.StatusCode).Send(prev.Body)
}
