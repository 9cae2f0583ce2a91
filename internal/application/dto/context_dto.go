package dto

// ContextResponse la empresa activa resuelta para el request actual.
type ContextResponse struct {
	Company CompanyResponse `json:"company"`
	// Warning se llena cuando la empresa original estaba inactiva y se
	// sustituyó por una alternativa (solo flujos de navegador).
	Warning string `json:"warning,omitempty"`
}

// SwitchCompanyResponse resultado de un cambio de contexto de empresa.
type SwitchCompanyResponse struct {
	Message string          `json:"message"`
	Company CompanyResponse `json:"company"`
}
