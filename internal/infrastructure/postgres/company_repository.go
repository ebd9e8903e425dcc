package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `id, name, nit, type, parent_id, status, email, phone, contact_info, created_at, updated_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

func scanCompany(row pgxScanner) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(&c.ID, &c.Name, &c.NIT, &c.Type, &c.ParentID, &c.Status, &c.Email, &c.Phone,
		&c.ContactInfo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.NIT, company.Type, nullIfEmpty(company.ParentID),
		company.Status, company.Email, company.Phone, company.ContactInfo,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByNIT obtiene una empresa por NIT.
func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE nit = $1`, nit))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by NIT: %w", err)
	}
	return c, nil
}

// Update actualiza una empresa existente (incluido el padre).
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	query := `
		UPDATE companies SET name = $2, parent_id = $3, status = $4, email = $5, phone = $6,
		       contact_info = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		company.ID, company.Name, nullIfEmpty(company.ParentID), company.Status,
		company.Email, company.Phone, company.ContactInfo, company.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidHierarchy
		}
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve empresas con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	return r.queryList(ctx, "list companies", query, limitOrAll(limit), offset)
}

// ListSubtree devuelve rootID y todos sus descendientes. El CTE corta ciclos con la ruta visitada.
func (r *CompanyRepo) ListSubtree(ctx context.Context, rootID string) ([]*entity.Company, error) {
	query := `
		WITH RECURSIVE tree AS (
			SELECT id, ARRAY[id] AS path, 0 AS depth FROM companies WHERE id = $1
			UNION ALL
			SELECT c.id, t.path || c.id, t.depth + 1
			FROM companies c JOIN tree t ON c.parent_id = t.id
			WHERE NOT c.id = ANY(t.path)
		)
		SELECT ` + prefixed("c", companyColumns) + `
		FROM tree t JOIN companies c ON c.id = t.id
		ORDER BY t.depth, c.name`
	return r.queryList(ctx, "list company subtree", query, rootID)
}

// ListAncestors devuelve los ancestros de id, del padre inmediato a la raíz.
func (r *CompanyRepo) ListAncestors(ctx context.Context, id string) ([]*entity.Company, error) {
	query := `
		WITH RECURSIVE up AS (
			SELECT parent_id AS id, ARRAY[id] AS path, 1 AS depth FROM companies WHERE id = $1
			UNION ALL
			SELECT c.parent_id, u.path || c.id, u.depth + 1
			FROM companies c JOIN up u ON c.id = u.id
			WHERE u.id IS NOT NULL AND NOT c.id = ANY(u.path)
		)
		SELECT ` + prefixed("c", companyColumns) + `
		FROM up u JOIN companies c ON c.id = u.id
		ORDER BY u.depth`
	return r.queryList(ctx, "list company ancestors", query, id)
}

func (r *CompanyRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
