package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// Asegura que ActivityRepo implementa repository.ActivityRepository.
var _ repository.ActivityRepository = (*ActivityRepo)(nil)

const activityColumns = `id, log_name, event, description, subject_type, subject_id, causer_id, properties, created_at`

// ActivityRepo sink de auditoría sobre la tabla activity_log. Solo inserta y
// lee; la tabla no tiene UPDATE ni DELETE desde la aplicación.
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el sink de actividad. Pasar pool o tx (Querier).
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Append persiste una entrada de actividad. CauserID vacío se guarda como
// NULL (acciones de sistema sin actor autenticado).
func (r *ActivityRepo) Append(ctx context.Context, e *entity.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	causer := (*string)(nil)
	if e.CauserID != "" {
		causer = &e.CauserID
	}
	props := e.Properties
	if props == nil {
		props = map[string]any{}
	}
	_, err := r.q.Exec(ctx, query,
		e.ID, e.LogName, e.Event, e.Description, e.SubjectType, e.SubjectID,
		causer, props, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByCompany devuelve entradas cuyo sujeto es la empresa o cuyas
// propiedades llevan su company_id, más recientes primero.
func (r *ActivityRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		  FROM activity_log
		 WHERE (subject_type = $2 AND subject_id = $1)
		    OR properties->>'company_id' = $1
		 ORDER BY created_at DESC, id DESC LIMIT $3`
	return r.list(ctx, query, companyID, entity.SubjectCompany, limit)
}

// ListByUser devuelve entradas causadas por el usuario o que lo tienen de
// sujeto, más recientes primero.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		  FROM activity_log
		 WHERE causer_id = $1 OR (subject_type = $2 AND subject_id = $1)
		 ORDER BY created_at DESC, id DESC LIMIT $3`
	return r.list(ctx, query, userID, entity.SubjectUser, limit)
}

// ListRecent devuelve la actividad global más reciente.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		  FROM activity_log ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *ActivityRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ActivityEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var list []*entity.ActivityEntry
	for rows.Next() {
		var e entity.ActivityEntry
		var causer *string
		if err := rows.Scan(
			&e.ID, &e.LogName, &e.Event, &e.Description, &e.SubjectType, &e.SubjectID,
			&causer, &e.Properties, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if causer != nil {
			e.CauserID = *causer
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
