package entity

import "time"

// Nombre de log bajo el que se registra toda la actividad de negocio.
const ActivityLogName = "erp"

// Eventos de actividad registrados por las mutaciones de membresías y contexto.
const (
	EventUserCompanyAssignment = "user_company_assignment"
	EventRoleChange            = "role_change"
	EventBusinessOperation     = "business_operation"
	EventCompanySwitch         = "company_switch"
)

// Tipos de sujeto sobre los que puede actuar una entrada de actividad.
const (
	SubjectUser    = "User"
	SubjectCompany = "Company"
)

// ActivityEntry es un registro inmutable del audit trail: quién (CauserID)
// hizo qué (Event, Description) sobre qué (SubjectType, SubjectID), con un
// mapa de propiedades estructurado. Nunca se actualiza ni se borra.
type ActivityEntry struct {
	ID          string
	LogName     string
	Event       string
	Description string
	SubjectType string
	SubjectID   string
	CauserID    string // vacío si la acción no tiene actor autenticado
	Properties  map[string]any
	CreatedAt   time.Time
}
