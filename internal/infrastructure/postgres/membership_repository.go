package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Empresas-api/internal/domain"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Asegura que MembershipRepo implementa repository.MembershipRepository.
var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo implementación del puerto MembershipRepository sobre la tabla
// user_companies. Pasar pool o tx (Querier): las mutaciones con invariantes
// multi-fila (clear-then-set del default) corren siempre dentro del TxRunner.
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador de membresías. Pasar pool o tx (Querier).
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

// Create persiste una membresía. El índice único (user_id, company_id) es la
// última línea de defensa contra duplicados bajo concurrencia.
func (r *MembershipRepo) Create(ctx context.Context, m *entity.Membership) error {
	query := `
		INSERT INTO user_companies (id, user_id, company_id, role_id, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, m.ID, m.UserID, m.CompanyID, m.RoleID, m.IsDefault, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMembershipExists
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// Get obtiene la membresía del par (usuario, empresa), o nil si no existe.
func (r *MembershipRepo) Get(ctx context.Context, userID, companyID string) (*entity.Membership, error) {
	query := `
		SELECT id, user_id, company_id, role_id, is_default, created_at, updated_at
		  FROM user_companies WHERE user_id = $1 AND company_id = $2`
	var m entity.Membership
	err := r.q.QueryRow(ctx, query, userID, companyID).Scan(
		&m.ID, &m.UserID, &m.CompanyID, &m.RoleID, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// Exists informa pertenencia con una sola consulta indexada.
func (r *MembershipRepo) Exists(ctx context.Context, userID, companyID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM user_companies WHERE user_id = $1 AND company_id = $2
		)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, userID, companyID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}

// ListByUser devuelve las membresías del usuario en orden determinista.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Membership, error) {
	query := `
		SELECT id, user_id, company_id, role_id, is_default, created_at, updated_at
		  FROM user_companies WHERE user_id = $1 ORDER BY company_id ASC`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var list []*entity.Membership
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.RoleID, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ListAssignments devuelve las membresías del usuario con empresa y rol
// resueltos (join contra companies y roles), ordenadas por nombre de empresa.
func (r *MembershipRepo) ListAssignments(ctx context.Context, userID string) ([]*entity.CompanyAssignment, error) {
	query := `
		SELECT c.id, c.name, c.code, (c.is_active AND c.deleted_at IS NULL),
		       ro.id, ro.name, uc.is_default, uc.created_at, uc.updated_at
		  FROM user_companies uc
		  JOIN companies c ON c.id = uc.company_id
		  JOIN roles ro ON ro.id = uc.role_id
		 WHERE uc.user_id = $1
		 ORDER BY c.name ASC, c.id ASC`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var list []*entity.CompanyAssignment
	for rows.Next() {
		var a entity.CompanyAssignment
		if err := rows.Scan(
			&a.CompanyID, &a.CompanyName, &a.CompanyCode, &a.CompanyIsActive,
			&a.RoleID, &a.RoleName, &a.IsDefault, &a.AssignedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// GetDefault devuelve la membresía marcada como empresa por defecto, o nil.
func (r *MembershipRepo) GetDefault(ctx context.Context, userID string) (*entity.Membership, error) {
	query := `
		SELECT id, user_id, company_id, role_id, is_default, created_at, updated_at
		  FROM user_companies WHERE user_id = $1 AND is_default = true
		 ORDER BY updated_at DESC LIMIT 1`
	var m entity.Membership
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.CompanyID, &m.RoleID, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default membership: %w", err)
	}
	return &m, nil
}

// FirstActiveCompany devuelve la primera empresa activa del usuario en orden
// determinista (nombre, luego id), excluyendo las indicadas; nil si no hay.
func (r *MembershipRepo) FirstActiveCompany(ctx context.Context, userID string, excludeCompanyIDs ...string) (*entity.Company, error) {
	query := `
		SELECT c.id, c.name, c.code, c.description, c.email, c.phone, c.address,
		       c.city, c.state, c.country, c.postal_code, c.currency, c.timezone,
		       c.is_active, c.created_at, c.updated_at, c.deleted_at
		  FROM user_companies uc
		  JOIN companies c ON c.id = uc.company_id
		 WHERE uc.user_id = $1
		   AND c.is_active = true AND c.deleted_at IS NULL
		   AND NOT (c.id = ANY($2))
		 ORDER BY c.name ASC, c.id ASC LIMIT 1`
	if excludeCompanyIDs == nil {
		excludeCompanyIDs = []string{}
	}
	c, err := scanCompany(r.q.QueryRow(ctx, query, userID, excludeCompanyIDs))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("first active company: %w", err)
	}
	return c, nil
}

// UpdateRole cambia el rol de una membresía existente.
func (r *MembershipRepo) UpdateRole(ctx context.Context, userID, companyID, roleID string) error {
	query := `
		UPDATE user_companies SET role_id = $3, updated_at = now()
		 WHERE user_id = $1 AND company_id = $2`
	cmd, err := r.q.Exec(ctx, query, userID, companyID, roleID)
	if err != nil {
		return fmt.Errorf("update membership role: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// ClearDefaults pone is_default=false en todas las membresías del usuario.
// Debe correr en la misma transacción que el SetDefault que le sigue.
func (r *MembershipRepo) ClearDefaults(ctx context.Context, userID string) error {
	query := `
		UPDATE user_companies SET is_default = false, updated_at = now()
		 WHERE user_id = $1 AND is_default = true`
	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear default memberships: %w", err)
	}
	return nil
}

// SetDefault marca la membresía del par como empresa por defecto.
func (r *MembershipRepo) SetDefault(ctx context.Context, userID, companyID string) error {
	query := `
		UPDATE user_companies SET is_default = true, updated_at = now()
		 WHERE user_id = $1 AND company_id = $2`
	cmd, err := r.q.Exec(ctx, query, userID, companyID)
	if err != nil {
		return fmt.Errorf("set default membership: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// Delete elimina la membresía del par (usuario, empresa).
func (r *MembershipRepo) Delete(ctx context.Context, userID, companyID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM user_companies WHERE user_id = $1 AND company_id = $2`, userID, companyID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// CountByUser cuenta las membresías del usuario.
func (r *MembershipRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM user_companies WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships by user: %w", err)
	}
	return n, nil
}

// CountByCompany cuenta las membresías de la empresa.
func (r *MembershipRepo) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM user_companies WHERE company_id = $1`, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships by company: %w", err)
	}
	return n, nil
}

// CountByCompanyWithRoles cuenta membresías de la empresa cuyo rol está en la
// lista (guardia de último administrador).
func (r *MembershipRepo) CountByCompanyWithRoles(ctx context.Context, companyID string, roleIDs []string) (int, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}
	var n int
	query := `SELECT count(*) FROM user_companies WHERE company_id = $1 AND role_id = ANY($2)`
	if err := r.q.QueryRow(ctx, query, companyID, roleIDs).Scan(&n); err != nil {
		return 0, fmt.Errorf("count administrators: %w", err)
	}
	return n, nil
}
