package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, license_id, amount, discount, final_amount, payment_method, payment_status,
	credits_consumed, wallet_transaction_id, created_by, created_at, updated_at`

// TransactionRepo ventas de licencias sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

func scanTransaction(row pgxScanner) (*entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(&t.ID, &t.LicenseID, &t.Amount, &t.Discount, &t.FinalAmount, &t.PaymentMethod, &t.PaymentStatus,
		&t.CreditsConsumed, &t.WalletTransactionID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste una venta.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.LicenseID, t.Amount, t.Discount, t.FinalAmount, t.PaymentMethod, t.PaymentStatus,
		t.CreditsConsumed, nullIfEmpty(t.WalletTransactionID), t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInvalidAmount
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID obtiene una venta por ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByLicense ventas de una licencia en orden cronológico.
func (r *TransactionRepo) ListByLicense(ctx context.Context, licenseID string) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE license_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, licenseID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var list []*entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
