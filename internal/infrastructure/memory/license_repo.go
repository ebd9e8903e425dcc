package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	domlicense "github.com/jhoicas/Licencias-api/internal/domain/license"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// LicenseRepo implementa repository.LicenseRepository. Los métodos ForUpdate no bloquean
// nada adicional: dentro de una transacción el Store ya está serializado.
type LicenseRepo struct {
	s    *Store
	inTx bool
}

func (r *LicenseRepo) Create(_ context.Context, l *entity.License) error {
	return r.s.view(r.inTx, func(st *state) error {
		for _, existing := range st.licenses {
			if existing.ActivationKey == l.ActivationKey {
				return domain.ErrDuplicate
			}
		}
		st.licenses[l.ID] = *l
		return nil
	})
}

func (r *LicenseRepo) GetByID(_ context.Context, id string) (*entity.License, error) {
	var out *entity.License
	err := r.s.view(r.inTx, func(st *state) error {
		if l, ok := st.licenses[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *LicenseRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.License, error) {
	return r.GetByID(ctx, id)
}

func (r *LicenseRepo) GetByActivationKey(_ context.Context, key string) (*entity.License, error) {
	var out *entity.License
	err := r.s.view(r.inTx, func(st *state) error {
		for _, l := range st.licenses {
			if l.ActivationKey == key {
				l := l
				out = &l
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *LicenseRepo) GetByActivationKeyForUpdate(ctx context.Context, key string) (*entity.License, error) {
	return r.GetByActivationKey(ctx, key)
}

func (r *LicenseRepo) Update(_ context.Context, l *entity.License) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.licenses[l.ID]; !ok {
			return domain.ErrNotFound
		}
		st.licenses[l.ID] = *l
		return nil
	})
}

// inScope informa si la licencia pertenece a un cliente de alguna de las empresas indicadas.
func inScope(st *state, l entity.License, companyIDs []string) bool {
	if len(companyIDs) == 0 {
		return true
	}
	c, ok := st.clients[l.ClientID]
	return ok && c.CompanyID != nil && containsID(companyIDs, *c.CompanyID)
}

func (r *LicenseRepo) List(_ context.Context, f repository.LicenseFilter) ([]*entity.License, error) {
	var out []*entity.License
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.License, 0)
		for _, l := range st.licenses {
			if f.ClientID != "" && l.ClientID != f.ClientID {
				continue
			}
			if f.ProductID != "" && l.ProductID != f.ProductID {
				continue
			}
			if !inScope(st, l, f.CompanyIDs) {
				continue
			}
			l := l
			all = append(all, &l)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID < all[j].ID
		})
		out = paginate(all, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *LicenseRepo) ListExpiringBetween(_ context.Context, from, to time.Time, companyIDs []string) ([]*entity.License, error) {
	var out []*entity.License
	err := r.s.view(r.inTx, func(st *state) error {
		for _, l := range st.licenses {
			if l.ExpiresAt == nil || !l.ExpiresAt.After(from) || l.ExpiresAt.After(to) {
				continue
			}
			if !inScope(st, l, companyIDs) {
				continue
			}
			l := l
			out = append(out, &l)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].ExpiresAt.Equal(*out[j].ExpiresAt) {
				return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (r *LicenseRepo) ListStale(_ context.Context, now time.Time, limit int) ([]*entity.License, error) {
	var out []*entity.License
	err := r.s.view(r.inTx, func(st *state) error {
		for _, l := range st.licenses {
			if domlicense.IsTerminal(l.Status) || l.ExpiresAt == nil || !l.ExpiresAt.Before(now) {
				continue
			}
			l := l
			out = append(out, &l)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		out = paginate(out, limit, 0)
		return nil
	})
	return out, err
}

// TransactionRepo implementa repository.TransactionRepository.
type TransactionRepo struct {
	s    *Store
	inTx bool
}

func (r *TransactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.licenses[t.LicenseID]; !ok {
			return domain.ErrNotFound
		}
		st.transactions[t.ID] = *t
		return nil
	})
}

func (r *TransactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	var out *entity.Transaction
	err := r.s.view(r.inTx, func(st *state) error {
		if t, ok := st.transactions[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *TransactionRepo) ListByLicense(_ context.Context, licenseID string) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	err := r.s.view(r.inTx, func(st *state) error {
		for _, t := range st.transactions {
			if t.LicenseID == licenseID {
				t := t
				out = append(out, &t)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}
