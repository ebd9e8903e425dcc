// Package license contiene las reglas puras del ciclo de vida de una licencia:
// cálculo de estado, vencimiento y generación de llaves. Sin acceso a persistencia.
package license

import (
	"sort"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// IsTerminal informa si el estado almacenado ya no cambia por el paso del tiempo.
func IsTerminal(status string) bool {
	return status == entity.LicenseStatusSuspended || status == entity.LicenseStatusExpired
}

// ComputeStatus devuelve el estado vigente de la licencia en el instante now.
// Vencida si ExpiresAt < now y el estado almacenado no es terminal; si no, el estado almacenado.
// En now == ExpiresAt la licencia sigue vigente. Función pura: mismo resultado en lectura y en barrido.
func ComputeStatus(l *entity.License, now time.Time) string {
	if l == nil {
		return ""
	}
	if IsTerminal(l.Status) {
		return l.Status
	}
	if l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
		return entity.LicenseStatusExpired
	}
	return l.Status
}

// IsExpiring informa si la licencia vence en el intervalo (now, now+horizonDays].
func IsExpiring(l *entity.License, now time.Time, horizonDays int) bool {
	if l == nil || l.ExpiresAt == nil || horizonDays <= 0 {
		return false
	}
	limit := now.Add(time.Duration(horizonDays) * 24 * time.Hour)
	return l.ExpiresAt.After(now) && !l.ExpiresAt.After(limit)
}

// FilterExpiring filtra las licencias por vencer y las ordena por vencimiento ascendente
// (la más próxima primero). No modifica el slice de entrada.
func FilterExpiring(list []*entity.License, now time.Time, horizonDays int) []*entity.License {
	out := make([]*entity.License, 0, len(list))
	for _, l := range list {
		if IsExpiring(l, now, horizonDays) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	return out
}

// InitialStatus estado con el que nace una licencia según la plantilla del producto.
func InitialStatus(licenseType string) string {
	if licenseType == entity.LicenseTypeTrial {
		return entity.LicenseStatusDemo
	}
	return entity.LicenseStatusPendingValidation
}

// ActivatedStatus estado de una licencia ya activada: las demo siguen siendo demo.
func ActivatedStatus(l *entity.License) string {
	if l.LicenseType == entity.LicenseTypeTrial {
		return entity.LicenseStatusDemo
	}
	return entity.LicenseStatusActive
}

// ResumeStatus estado al que vuelve una licencia reactivada o renovada.
func ResumeStatus(l *entity.License) string {
	if l.ActivatedAt == nil {
		return InitialStatus(l.LicenseType)
	}
	return ActivatedStatus(l)
}

// ExpiryOnActivation calcula la fecha de vencimiento a fijar en la primera activación.
// Devuelve nil si la licencia ya tiene vencimiento o no vence (DurationDays <= 0).
func ExpiryOnActivation(l *entity.License, now time.Time) *time.Time {
	if l.ExpiresAt != nil || l.DurationDays <= 0 {
		return nil
	}
	exp := now.AddDate(0, 0, l.DurationDays)
	return &exp
}
