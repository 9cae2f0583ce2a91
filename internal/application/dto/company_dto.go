package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Code        string `json:"code" validate:"required,min=1,max=10"`
	Description string `json:"description"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	Address     string `json:"address"`
	City        string `json:"city" validate:"omitempty,max=100"`
	State       string `json:"state" validate:"omitempty,max=100"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	PostalCode  string `json:"postal_code" validate:"omitempty,max=20"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Timezone    string `json:"timezone" validate:"required,max=50"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
type UpdateCompanyRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Country     *string `json:"country"`
	PostalCode  *string `json:"postal_code"`
	Currency    *string `json:"currency" validate:"omitempty,len=3"`
	Timezone    *string `json:"timezone"`
	IsActive    *bool   `json:"is_active"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	PostalCode  string    `json:"postal_code,omitempty"`
	Currency    string    `json:"currency"`
	Timezone    string    `json:"timezone"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccessibleCompanyResponse empresa a la que el usuario pertenece, con su rol
// y el flag de empresa por defecto (alimenta el selector de empresas).
type AccessibleCompanyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	IsActive  bool   `json:"is_active"`
	Role      string `json:"role"`
	IsDefault bool   `json:"is_default"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
