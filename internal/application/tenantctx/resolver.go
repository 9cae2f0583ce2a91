package tenantctx

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Empresas-api/internal/domain/entity"
	"github.com/jhoicas/Empresas-api/internal/domain/repository"
)

// State es el estado terminal de una resolución de contexto. La resolución es
// de una sola pasada por request: una vez alcanzado un estado, no se reintenta
// ni se muta durante el resto del procesamiento.
type State int

const (
	// Unresolved solo existe antes de llamar a Resolve.
	Unresolved State = iota
	// Resolved: hay exactamente una empresa activa para el request.
	Resolved
	// NoAccess: usuario autenticado sin ninguna empresa usable. La capa de
	// entrega termina la sesión (página) o responde 403 (API).
	NoAccess
	// Unauthorized: se pidió explícitamente una empresa ajena. Recuperable;
	// la sesión no se toca.
	Unauthorized
	// Inactive: la empresa seleccionada existe pero está desactivada. Si hay
	// alternativa activa queda en Resolution.Alternative; adoptarla es
	// decisión de la capa de entrega (los clientes API no reciben sustituto).
	Inactive
)

// String para logs.
func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NoAccess:
		return "no_access"
	case Unauthorized:
		return "unauthorized"
	case Inactive:
		return "inactive"
	default:
		return "unresolved"
	}
}

// Resolution es el resultado inmutable de resolver el contexto de empresa de
// un request.
type Resolution struct {
	State State
	// Company es la empresa activa cuando State == Resolved.
	Company *entity.Company
	// RequestedID es el company_id pedido cuando State == Unauthorized.
	RequestedID string
	// InactiveCompany es la empresa desactivada cuando State == Inactive
	// (nil si la fila desapareció).
	InactiveCompany *entity.Company
	// Alternative es otra empresa activa del usuario cuando State == Inactive,
	// disponible como fallback; nil si no existe ninguna.
	Alternative *entity.Company
}

// Resolver determina la empresa activa de un request autenticado aplicando la
// cadena de prioridad: switch explícito → sesión → membresía por defecto →
// primera empresa activa → sin acceso. Tras elegir candidata, la revalida
// contra la base (puede haber sido desactivada o eliminada entre requests).
type Resolver struct {
	companies   repository.CompanyRepository
	memberships repository.MembershipRepository
	sessions    SessionStore
	log         zerolog.Logger
}

// NewResolver construye el resolver con sus puertos.
func NewResolver(companies repository.CompanyRepository, memberships repository.MembershipRepository, sessions SessionStore, log zerolog.Logger) *Resolver {
	return &Resolver{companies: companies, memberships: memberships, sessions: sessions, log: log}
}

// Resolve ejecuta la cadena de resolución para el usuario. switchCompanyID es
// el parámetro explícito de cambio de empresa, o vacío si el request no lo
// trae. El error devuelto es siempre de infraestructura; los fallos de negocio
// van en Resolution.State.
func (r *Resolver) Resolve(ctx context.Context, userID, switchCompanyID string) (*Resolution, error) {
	candidateID, res, err := r.selectCandidate(ctx, userID, switchCompanyID)
	if err != nil {
		return nil, err
	}
	if res != nil {
		// La cadena terminó sin candidata (Unauthorized o NoAccess).
		r.logOutcome(userID, res)
		return res, nil
	}

	// Revalidación post-selección: la empresa pudo desaparecer o quedar
	// inactiva desde que se persistió en sesión.
	company, err := r.companies.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("revalidar empresa %s: %w", candidateID, err)
	}
	if !company.Usable() {
		res, err = r.inactiveFallback(ctx, userID, candidateID, company)
		if err != nil {
			return nil, err
		}
		r.logOutcome(userID, res)
		return res, nil
	}

	// Éxito: persistir la elección para los próximos requests.
	if err := r.sessions.SetActiveCompany(ctx, userID, company.ID); err != nil {
		return nil, fmt.Errorf("persistir empresa activa: %w", err)
	}
	res = &Resolution{State: Resolved, Company: company}
	r.logOutcome(userID, res)
	return res, nil
}

// selectCandidate recorre la cadena de prioridad y devuelve el company_id
// candidato, o una Resolution terminal si ninguna regla aplica.
func (r *Resolver) selectCandidate(ctx context.Context, userID, switchCompanyID string) (string, *Resolution, error) {
	// 1) Cambio explícito: si el usuario no pertenece a la empresa pedida, la
	// resolución falla aquí mismo sin tocar la sesión; no cae a otras reglas.
	if switchCompanyID != "" {
		member, err := r.memberships.Exists(ctx, userID, switchCompanyID)
		if err != nil {
			return "", nil, err
		}
		if !member {
			return "", &Resolution{State: Unauthorized, RequestedID: switchCompanyID}, nil
		}
		return switchCompanyID, nil, nil
	}

	// 2) Empresa recordada en sesión, si la membresía sigue vigente.
	sessionID, err := r.sessions.GetActiveCompany(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("leer sesión: %w", err)
	}
	if sessionID != "" {
		member, err := r.memberships.Exists(ctx, userID, sessionID)
		if err != nil {
			return "", nil, err
		}
		if member {
			return sessionID, nil, nil
		}
	}

	// 3) Membresía por defecto del usuario.
	def, err := r.memberships.GetDefault(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if def != nil {
		return def.CompanyID, nil, nil
	}

	// 4) Primera empresa activa en orden determinista.
	first, err := r.memberships.FirstActiveCompany(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if first != nil {
		return first.ID, nil, nil
	}

	// 5) Nada disponible.
	return "", &Resolution{State: NoAccess}, nil
}

// inactiveFallback busca otra empresa activa del usuario cuando la candidata
// resultó inusable. No la adopta: la decisión de sustituir (flujo de página)
// o de responder 403 (flujo API) es de la capa de entrega.
func (r *Resolver) inactiveFallback(ctx context.Context, userID, candidateID string, company *entity.Company) (*Resolution, error) {
	alt, err := r.memberships.FirstActiveCompany(ctx, userID, candidateID)
	if err != nil {
		return nil, err
	}
	if alt == nil {
		return &Resolution{State: NoAccess}, nil
	}
	return &Resolution{State: Inactive, InactiveCompany: company, Alternative: alt}, nil
}

// Adopt persiste una empresa como activa para el usuario (sustitución tras
// empresa inactiva, o cambio explícito ya autorizado).
func (r *Resolver) Adopt(ctx context.Context, userID string, company *entity.Company) error {
	if err := r.sessions.SetActiveCompany(ctx, userID, company.ID); err != nil {
		return fmt.Errorf("persistir empresa activa: %w", err)
	}
	return nil
}

// Forget limpia la selección de empresa del usuario (se usa al terminar la
// sesión por falta de acceso).
func (r *Resolver) Forget(ctx context.Context, userID string) error {
	return r.sessions.Clear(ctx, userID)
}

func (r *Resolver) logOutcome(userID string, res *Resolution) {
	ev := r.log.Debug().Str("user_id", userID).Stringer("state", res.State)
	if res.Company != nil {
		ev = ev.Str("company_id", res.Company.ID)
	}
	if res.State == Unauthorized {
		ev = ev.Str("requested_company_id", res.RequestedID)
	}
	ev.Msg("contexto de empresa resuelto")
}
