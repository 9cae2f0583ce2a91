package dto

import "time"

// ActivityCauserResponse actor de una entrada de actividad.
type ActivityCauserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActivitySubjectResponse sujeto de una entrada de actividad.
type ActivitySubjectResponse struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ActivityResponse una entrada del audit trail.
type ActivityResponse struct {
	ID          string                   `json:"id"`
	Description string                   `json:"description"`
	Event       string                   `json:"event"`
	CreatedAt   time.Time                `json:"created_at"`
	Causer      *ActivityCauserResponse  `json:"causer,omitempty"`
	Subject     *ActivitySubjectResponse `json:"subject,omitempty"`
	Properties  map[string]any           `json:"properties,omitempty"`
}

// ActivityListResponse listado de entradas de actividad.
type ActivityListResponse struct {
	Activities []ActivityResponse `json:"activities"`
}
