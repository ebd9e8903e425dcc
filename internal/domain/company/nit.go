package company

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jhoicas/Licencias-api/internal/domain"
)

// nitWeights pesos del módulo 11 de la DIAN, aplicados de derecha a izquierda sobre la base del NIT.
var nitWeights = [...]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// VerificationDigit calcula el dígito de verificación de la base de un NIT (solo dígitos).
func VerificationDigit(base string) (byte, error) {
	if base == "" || len(base) > len(nitWeights) {
		return 0, fmt.Errorf("%w: NIT con %d dígitos", domain.ErrValidation, len(base))
	}
	sum := 0
	for i := 0; i < len(base); i++ {
		d := base[len(base)-1-i]
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("%w: NIT con caracteres no numéricos", domain.ErrValidation)
		}
		sum += int(d-'0') * nitWeights[i]
	}
	r := sum % 11
	if r > 1 {
		r = 11 - r
	}
	return byte('0' + r), nil
}

// NormalizeNIT quita puntos y espacios y devuelve solo la base del NIT, que es la llave con la que
// se guardan y buscan empresas y registros de equipos. Si trae dígito de verificación
// ("900123456-7") se comprueba y se descarta.
func NormalizeNIT(raw string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if clean == "" {
		return "", fmt.Errorf("%w: NIT vacío", domain.ErrValidation)
	}
	base, dv, hasDV := strings.Cut(clean, "-")
	if _, err := VerificationDigit(base); err != nil {
		return "", err
	}
	if !hasDV {
		return base, nil
	}
	want, _ := VerificationDigit(base)
	if len(dv) != 1 || dv[0] != want {
		return "", fmt.Errorf("%w: dígito de verificación del NIT inválido, esperado %c", domain.ErrValidation, want)
	}
	return base, nil
}

// FormatNIT devuelve la base con su dígito de verificación ("900123456-7"), para mostrar.
func FormatNIT(base string) string {
	dv, err := VerificationDigit(base)
	if err != nil {
		return base
	}
	return base + "-" + string(dv)
}
