package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
)

// Códigos propios de la capa HTTP.
const (
	CodeInvalidBody  = "INVALID_BODY"
	CodeMissingID    = "MISSING_ID"
	CodeMissingToken = "MISSING_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeMissingRole  = "MISSING_ROLE"
	CodeRouteMissing = "ROUTE_NOT_FOUND"
)

var statusByCode = map[string]int{
	domain.CodeNotFound:          fiber.StatusNotFound,
	domain.CodeAlreadyBound:      fiber.StatusConflict,
	domain.CodeExpired:           fiber.StatusGone,
	domain.CodeSuspended:         fiber.StatusForbidden,
	domain.CodeInvalidAmount:     fiber.StatusUnprocessableEntity,
	domain.CodeInsufficientFunds: fiber.StatusConflict,
	domain.CodeValidation:        fiber.StatusBadRequest,
	domain.CodeInvalidHierarchy:  fiber.StatusBadRequest,
	domain.CodeDuplicate:         fiber.StatusConflict,
	domain.CodeConflict:          fiber.StatusConflict,
	domain.CodeUnauthorized:      fiber.StatusUnauthorized,
	domain.CodeForbidden:         fiber.StatusForbidden,
}

// StatusFor devuelve el código HTTP y el código estable de un error de dominio.
func StatusFor(err error) (int, string) {
	code := domain.ErrorCode(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return fiber.StatusInternalServerError, domain.CodeInternal
}

// writeError responde con dto.ErrorResponse. Los errores internos se registran y no exponen su mensaje.
func writeError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := domain.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = CodeRouteMissing
		case fiber.StatusBadRequest:
			code = CodeInvalidBody
		case fiber.StatusMethodNotAllowed:
			code = CodeRouteMissing
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}

	status, code := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		zlog.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error interno atendiendo petición")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// ErrorHandler manejador de errores de la app Fiber: lo que un handler devuelva sin responder
// termina aquí con el mismo mapeo que writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}
