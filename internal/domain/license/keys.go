package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Alfabeto sin caracteres ambiguos (0/O, 1/I/L).
const keyAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	keyGroups    = 4
	keyGroupSize = 5
)

// GenerateActivationKey genera una llave de activación con formato XXXXX-XXXXX-XXXXX-XXXXX.
func GenerateActivationKey() (string, error) {
	buf := make([]byte, keyGroups*keyGroupSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generar llave de activación: %w", err)
	}
	var sb strings.Builder
	for i, b := range buf {
		if i > 0 && i%keyGroupSize == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(keyAlphabet[int(b)%len(keyAlphabet)])
	}
	return sb.String(), nil
}

// GenerateComputerKey genera el token que vincula la licencia a un equipo.
func GenerateComputerKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generar llave de equipo: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NormalizeKey limpia espacios y pasa a mayúsculas una llave escrita por el usuario.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// IsWellFormedActivationKey valida el formato de una llave de activación.
func IsWellFormedActivationKey(key string) bool {
	parts := strings.Split(key, "-")
	if len(parts) != keyGroups {
		return false
	}
	for _, p := range parts {
		if len(p) != keyGroupSize {
			return false
		}
		for _, r := range p {
			if !strings.ContainsRune(keyAlphabet, r) {
				return false
			}
		}
	}
	return true
}
