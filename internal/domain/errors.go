package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrValidation         = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Licencias
	ErrAlreadyBound = errors.New("la licencia ya está vinculada a otro equipo")
	ErrExpired      = errors.New("la licencia está vencida")
	ErrSuspended    = errors.New("la licencia está suspendida")

	// Billetera
	ErrInvalidAmount     = errors.New("monto inválido")
	ErrInsufficientFunds = errors.New("saldo insuficiente")

	// Jerarquía de empresas
	ErrInvalidHierarchy = errors.New("jerarquía de empresas inválida")
)

// Códigos estables para respuestas HTTP, bitácoras y métricas.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyBound      = "ALREADY_BOUND"
	CodeExpired           = "EXPIRED"
	CodeSuspended         = "SUSPENDED"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeValidation        = "VALIDATION"
	CodeInvalidHierarchy  = "INVALID_HIERARCHY"
	CodeDuplicate         = "DUPLICATE"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrUserNotFound, CodeNotFound},
	{ErrAlreadyBound, CodeAlreadyBound},
	{ErrExpired, CodeExpired},
	{ErrSuspended, CodeSuspended},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrInvalidHierarchy, CodeInvalidHierarchy},
	{ErrValidation, CodeValidation},
	{ErrDuplicate, CodeDuplicate},
	{ErrEmailAlreadyExists, CodeDuplicate},
	{ErrConflict, CodeConflict},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrForbidden, CodeForbidden},
}

// ErrorCode devuelve el código estable del error de dominio envuelto en err, o CodeInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsBusiness informa si err es un error de dominio recuperable (no de infraestructura).
func IsBusiness(err error) bool {
	code := ErrorCode(err)
	return code != "" && code != CodeInternal
}
