package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// HTTPObserver registra métricas por petición.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// AccessLog registra cada petición en el log y en la bitácora de acceso (sink asíncrono).
// Los errores del handler se resuelven aquí con el ErrorHandler de la app para conocer el status final.
func AccessLog(sink ports.AuditSink, observer HTTPObserver, log zerolog.Logger) fiber.Handler {
	if sink == nil {
		sink = ports.NoopAuditSink{}
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		// Los strings del contexto apuntan a buffers que fasthttp reutiliza al terminar la
		// petición; el sink los escribe después, así que se copian.
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Path())
		ip := utils.CopyString(c.IP())
		route := c.Route().Path

		if observer != nil {
			observer.ObserveHTTP(method, route, status, elapsed)
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", method).
			Str("path", path).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", ip).
			Msg("petición HTTP")

		sink.RecordAccess(&entity.AccessLog{
			ID:         uuid.New().String(),
			UserID:     GetUserID(c),
			CompanyID:  GetCompanyID(c),
			Method:     method,
			Path:       path,
			StatusCode: status,
			LatencyMs:  elapsed.Milliseconds(),
			IP:         ip,
			UserAgent:  utils.CopyString(c.Get(fiber.HeaderUserAgent)),
			CreatedAt:  start.UTC(),
		})
		return nil
	}
}
