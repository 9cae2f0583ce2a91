package tenantctx

import "context"

// SessionStore es el puerto hacia el estado de sesión que sobrevive entre
// requests: el active_company_id elegido por usuario. El transporte de la
// sesión (cookie, JWT, etc.) es un colaborador externo; aquí solo se consume
// el valor. La implementación productiva vive en infrastructure/redissession.
type SessionStore interface {
	// GetActiveCompany devuelve el company_id recordado para el usuario, o
	// cadena vacía si no hay ninguno.
	GetActiveCompany(ctx context.Context, userID string) (string, error)
	SetActiveCompany(ctx context.Context, userID, companyID string) error
	// Clear olvida la selección (equivale a terminar la sesión de empresa).
	Clear(ctx context.Context, userID string) error
}
