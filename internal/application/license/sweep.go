package license

import (
	"context"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain"
	domlicense "github.com/jhoicas/Licencias-api/internal/domain/license"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

const sweepBatchSize = 500

// SweepResult resumen de un barrido.
type SweepResult struct {
	Scanned int
	Updated int
}

// Sweep persiste el estado calculado de las licencias cuyo estado almacenado quedó desfasado.
// Usa la misma función ComputeStatus que las lecturas, por lo que no cambia lo que ven los clientes.
func (uc *UseCase) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	seen := make(map[string]struct{})
	for {
		batch, err := uc.licenses.ListStale(ctx, now, sweepBatchSize)
		if err != nil {
			return res, err
		}
		progressed := false
		for _, candidate := range batch {
			if _, ok := seen[candidate.ID]; ok {
				continue
			}
			seen[candidate.ID] = struct{}{}
			progressed = true
			res.Scanned++
			updated, err := uc.sweepOne(ctx, candidate.ID, now)
			if err != nil {
				uc.metrics.ObserveSweep(res.Scanned, res.Updated)
				return res, err
			}
			if updated {
				res.Updated++
			}
		}
		if len(batch) < sweepBatchSize || !progressed {
			break
		}
	}
	uc.metrics.ObserveSweep(res.Scanned, res.Updated)
	uc.log.Info().Int("scanned", res.Scanned).Int("updated", res.Updated).Msg("barrido de licencias terminado")
	return res, nil
}

func (uc *UseCase) sweepOne(ctx context.Context, id string, now time.Time) (bool, error) {
	updated := false
	err := uc.txRunner.RunLicense(ctx, func(licenses repository.LicenseRepository) error {
		l, err := licenses.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}
		status := domlicense.ComputeStatus(l, now)
		if status == l.Status {
			return nil
		}
		l.Status = status
		l.UpdatedAt = now
		updated = true
		return licenses.Update(ctx, l)
	})
	return updated, err
}
