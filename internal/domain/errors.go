package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores del contexto de empresa y de autorización. Cada uno corresponde a un
// estado terminal del resolver o a una regla del predicado de autorización;
// los handlers los traducen a respuestas estructuradas y nunca los dejan
// propagar como fallos genéricos.
var (
	// ErrNoCompanyAccess: usuario autenticado sin ninguna membresía usable.
	ErrNoCompanyAccess = errors.New("el usuario no tiene acceso a ninguna empresa")
	// ErrUnauthorizedCompany: se pidió explícitamente una empresa a la que el
	// usuario no pertenece. Recuperable: no invalida la sesión.
	ErrUnauthorizedCompany = errors.New("el usuario no tiene acceso a la empresa solicitada")
	// ErrInactiveCompany: la empresa resuelta existe pero está desactivada.
	ErrInactiveCompany = errors.New("la empresa está inactiva")
	// ErrPermissionDenied: el rol del usuario no otorga el permiso requerido.
	ErrPermissionDenied = errors.New("permiso insuficiente")
	// ErrCrossTenantMutation: un no-Super-Admin intentó mutar una empresa
	// distinta de su empresa activa. Misma respuesta HTTP que
	// ErrPermissionDenied pero se registra por separado.
	ErrCrossTenantMutation = errors.New("mutación fuera de la empresa activa")
)

// Errores de las operaciones de membresía (violaciones de invariantes; la
// transacción se revierte y no queda estado parcial).
var (
	ErrMembershipExists   = errors.New("el usuario ya está asignado a esta empresa")
	ErrMembershipNotFound = errors.New("el usuario no está asignado a esta empresa")
	ErrOnlyMembership     = errors.New("no se puede quitar al usuario de su única empresa")
	ErrLastAdministrator  = errors.New("la empresa no puede quedar sin administradores")
	ErrInvalidRole        = errors.New("rol desconocido")
	// ErrReservedRole: el registro público no puede otorgar roles
	// administrativos; esos se asignan por un administrador ya autenticado.
	ErrReservedRole = errors.New("el rol no está disponible para el registro")
	ErrCompanyHasMembers  = errors.New("la empresa tiene membresías activas y no puede eliminarse")
)
