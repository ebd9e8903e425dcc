package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var (
	_ repository.WalletRepository       = (*WalletRepo)(nil)
	_ repository.WalletLedgerRepository = (*LedgerRepo)(nil)
)

const walletColumns = `company_id, balance, total_recharged, total_spent, total_transferred_in, total_transferred_out, created_at, updated_at`

// WalletRepo billeteras sobre PostgreSQL (usable con pool o tx).
type WalletRepo struct {
	q Querier
}

// NewWalletRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWalletRepository(q Querier) *WalletRepo {
	return &WalletRepo{q: q}
}

func scanWallet(row pgxScanner) (*entity.CompanyWallet, error) {
	var w entity.CompanyWallet
	err := row.Scan(&w.CompanyID, &w.Balance, &w.TotalRecharged, &w.TotalSpent,
		&w.TotalTransferredIn, &w.TotalTransferredOut, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByCompanyID devuelve nil si la empresa aún no tiene billetera.
func (r *WalletRepo) GetByCompanyID(ctx context.Context, companyID string) (*entity.CompanyWallet, error) {
	w, err := scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM company_wallets WHERE company_id = $1`, companyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetOrCreateForUpdate crea la billetera en cero si no existe (ON CONFLICT DO NOTHING) y bloquea la fila.
func (r *WalletRepo) GetOrCreateForUpdate(ctx context.Context, companyID string, now time.Time) (*entity.CompanyWallet, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_wallets (company_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (company_id) DO NOTHING`, companyID, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	w, err := scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM company_wallets WHERE company_id = $1 FOR UPDATE`, companyID))
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

// UpdateBalance escribe saldo y acumulados solo si el saldo almacenado sigue siendo expectedBefore.
func (r *WalletRepo) UpdateBalance(ctx context.Context, w *entity.CompanyWallet, expectedBefore decimal.Decimal) error {
	query := `
		UPDATE company_wallets SET balance = $2, total_recharged = $3, total_spent = $4,
		       total_transferred_in = $5, total_transferred_out = $6, updated_at = $7
		WHERE company_id = $1 AND balance = $8`
	cmd, err := r.q.Exec(ctx, query,
		w.CompanyID, w.Balance, w.TotalRecharged, w.TotalSpent, w.TotalTransferredIn, w.TotalTransferredOut,
		w.UpdatedAt, expectedBefore,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientFunds
		}
		return fmt.Errorf("update wallet: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el saldo de la billetera cambió", domain.ErrConflict)
	}
	return nil
}

const ledgerColumns = `id, company_id, type, amount, balance_before, balance_after, counterparty_company_id,
	correlation_id, related_entity_type, related_entity_id, description, created_by, created_at`

// LedgerRepo libro de movimientos (solo inserción) sobre PostgreSQL.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanLedgerRow(row pgxScanner) (*entity.WalletTransaction, error) {
	var t entity.WalletTransaction
	err := row.Scan(&t.ID, &t.CompanyID, &t.Type, &t.Amount, &t.BalanceBefore, &t.BalanceAfter,
		&t.CounterpartyCompanyID, &t.CorrelationID, &t.RelatedEntityType, &t.RelatedEntityID,
		&t.Description, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Append inserta una fila del libro.
func (r *LedgerRepo) Append(ctx context.Context, row *entity.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		row.ID, row.CompanyID, row.Type, row.Amount, row.BalanceBefore, row.BalanceAfter,
		nullIfEmpty(row.CounterpartyCompanyID), nullIfEmpty(row.CorrelationID), row.RelatedEntityType,
		row.RelatedEntityID, row.Description, row.CreatedBy, row.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInvalidAmount
		}
		return fmt.Errorf("append ledger row: %w", err)
	}
	return nil
}

// List filas más recientes primero, opcionalmente acotadas por fecha.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.WalletTransaction, error) {
	query := `
		SELECT ` + ledgerColumns + ` FROM wallet_transactions
		WHERE company_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY seq DESC
		LIMIT $4 OFFSET $5`
	return r.queryList(ctx, "list ledger", query, f.CompanyID, f.From, f.To, limitOrAll(f.Limit), f.Offset)
}

// ListChronological todas las filas de la empresa en orden de inserción.
func (r *LedgerRepo) ListChronological(ctx context.Context, companyID string) ([]*entity.WalletTransaction, error) {
	query := `SELECT ` + ledgerColumns + ` FROM wallet_transactions WHERE company_id = $1 ORDER BY seq`
	return r.queryList(ctx, "list ledger chronological", query, companyID)
}

// SumByType suma los montos por tipo en [from, to].
func (r *LedgerRepo) SumByType(ctx context.Context, companyID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0) FROM wallet_transactions
		WHERE company_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY type`
	rows, err := r.q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	defer rows.Close()

	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var (
			txType string
			sum    decimal.Decimal
		)
		if err := rows.Scan(&txType, &sum); err != nil {
			return nil, fmt.Errorf("scan ledger sum: %w", err)
		}
		out[txType] = sum
	}
	return out, rows.Err()
}

func (r *LedgerRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.WalletTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*entity.WalletTransaction
	for rows.Next() {
		t, err := scanLedgerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
