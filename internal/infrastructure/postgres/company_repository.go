package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

const companyColumns = `id, name, code, description, email, phone, address, city, state, country, postal_code, currency, timezone, is_active, created_at, updated_at, deleted_at`

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Code, c.Description, c.Email, c.Phone, c.Address,
		c.City, c.State, c.Country, c.PostalCode, c.Currency, c.Timezone,
		c.IsActive, c.CreatedAt, c.UpdatedAt, c.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID (incluye eliminadas: el dominio decide
// con Usable si puede actuar como contexto).
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByCode obtiene una empresa vigente por su código corto.
func (r *CompanyRepo) GetByCode(ctx context.Context, code string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE code = $1 AND deleted_at IS NULL`
	c, err := scanCompany(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by code: %w", err)
	}
	return c, nil
}

// Update actualiza una empresa existente.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	query := `
		UPDATE companies
		   SET name = $2, code = $3, description = $4, email = $5, phone = $6,
		       address = $7, city = $8, state = $9, country = $10, postal_code = $11,
		       currency = $12, timezone = $13, is_active = $14, updated_at = $15
		 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Code, c.Description, c.Email, c.Phone, c.Address,
		c.City, c.State, c.Country, c.PostalCode, c.Currency, c.Timezone,
		c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve empresas vigentes con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies WHERE deleted_at IS NULL
		ORDER BY name ASC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
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

// SoftDelete marca deleted_at y desactiva la empresa sin borrar la fila.
func (r *CompanyRepo) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE companies SET is_active = false, deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la fila. El caso de uso verifica antes que no haya membresías.
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Code, &c.Description, &c.Email, &c.Phone, &c.Address,
		&c.City, &c.State, &c.Country, &c.PostalCode, &c.Currency, &c.Timezone,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
