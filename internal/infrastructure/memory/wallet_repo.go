package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// WalletRepo implementa repository.WalletRepository.
type WalletRepo struct {
	s    *Store
	inTx bool
}

func (r *WalletRepo) GetByCompanyID(_ context.Context, companyID string) (*entity.CompanyWallet, error) {
	var out *entity.CompanyWallet
	err := r.s.view(r.inTx, func(st *state) error {
		if w, ok := st.wallets[companyID]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *WalletRepo) GetOrCreateForUpdate(_ context.Context, companyID string, now time.Time) (*entity.CompanyWallet, error) {
	var out *entity.CompanyWallet
	err := r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.companies[companyID]; !ok {
			return domain.ErrNotFound
		}
		w, ok := st.wallets[companyID]
		if !ok {
			w = entity.CompanyWallet{CompanyID: companyID, CreatedAt: now, UpdatedAt: now}
			st.wallets[companyID] = w
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *WalletRepo) UpdateBalance(_ context.Context, w *entity.CompanyWallet, expectedBefore decimal.Decimal) error {
	return r.s.view(r.inTx, func(st *state) error {
		current, ok := st.wallets[w.CompanyID]
		if !ok || !current.Balance.Equal(expectedBefore) {
			return domain.ErrConflict
		}
		if w.Balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}
		st.wallets[w.CompanyID] = *w
		return nil
	})
}

// LedgerRepo implementa repository.WalletLedgerRepository (solo inserción).
type LedgerRepo struct {
	s    *Store
	inTx bool
}

func (r *LedgerRepo) Append(_ context.Context, row *entity.WalletTransaction) error {
	return r.s.view(r.inTx, func(st *state) error {
		st.ledger = append(st.ledger, *row)
		return nil
	})
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func (r *LedgerRepo) List(_ context.Context, f repository.LedgerFilter) ([]*entity.WalletTransaction, error) {
	var out []*entity.WalletTransaction
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.WalletTransaction, 0)
		for i := len(st.ledger) - 1; i >= 0; i-- {
			row := st.ledger[i]
			if row.CompanyID != f.CompanyID || !inRange(row.CreatedAt, f.From, f.To) {
				continue
			}
			all = append(all, &row)
		}
		out = paginate(all, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *LedgerRepo) ListChronological(_ context.Context, companyID string) ([]*entity.WalletTransaction, error) {
	var out []*entity.WalletTransaction
	err := r.s.view(r.inTx, func(st *state) error {
		for _, row := range st.ledger {
			if row.CompanyID == companyID {
				row := row
				out = append(out, &row)
			}
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepo) SumByType(_ context.Context, companyID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	err := r.s.view(r.inTx, func(st *state) error {
		for _, row := range st.ledger {
			if row.CompanyID != companyID || !inRange(row.CreatedAt, &from, &to) {
				continue
			}
			out[row.Type] = out[row.Type].Add(row.Amount)
		}
		return nil
	})
	return out, err
}
