package entity

import "time"

// Membership es la asociación usuario↔empresa (tabla user_companies).
// Invariantes: par (UserID, CompanyID) único; a lo sumo una membresía por
// usuario con IsDefault=true (se limpia explícitamente antes de fijar otra);
// un usuario debe conservar al menos una membresía tras el onboarding.
type Membership struct {
	ID        string
	UserID    string
	CompanyID string
	RoleID    string // rol del usuario dentro de esa empresa
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyAssignment es la vista de una membresía con los datos de empresa y
// rol ya resueltos (join user_companies ⋈ companies ⋈ roles). Se usa en los
// listados de asignaciones y en el selector de empresas.
type CompanyAssignment struct {
	CompanyID       string
	CompanyName     string
	CompanyCode     string
	CompanyIsActive bool
	RoleID          string
	RoleName        string
	IsDefault       bool
	AssignedAt      time.Time
	UpdatedAt       time.Time
}
