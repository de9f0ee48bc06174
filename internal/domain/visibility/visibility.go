package visibility

import "context"

// Role define los roles soportados.
// @Enum ADMIN, MANAGER, SALES
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleSales   Role = "SALES"
)

// Actor es la identidad autenticada que ejecuta una lectura o mutación.
type Actor struct {
	ID     string
	Role   Role
	TeamID string
}

// TeamDirectory resuelve el equipo de un usuario.
// Se define aquí para evitar ciclos de imports entre módulos (identity <-> entidades).
type TeamDirectory interface {
	TeamOf(ctx context.Context, userID string) (string, error)
}

// ScopeKind indica cómo acotar una consulta según el rol.
type ScopeKind string

const (
	ScopeAll   ScopeKind = "all"   // ADMIN: sin filtro
	ScopeTeam  ScopeKind = "team"  // MANAGER: registros de dueños del mismo equipo
	ScopeOwner ScopeKind = "owner" // SALES: solo registros propios
	ScopeNone  ScopeKind = "none"  // fail closed: nada visible
)

type Scope struct {
	Kind    ScopeKind
	TeamID  string
	OwnerID string
}

// ScopeFor traduce el rol del actor al alcance de consulta.
// La política se aplica siempre del lado servidor; el cliente nunca
// recibe datos que luego haya que re-filtrar.
//
// MANAGER sin equipo asignado no ve nada (fail closed).
func ScopeFor(a Actor) Scope {
	switch a.Role {
	case RoleAdmin:
		return Scope{Kind: ScopeAll}
	case RoleManager:
		if a.TeamID == "" {
			return Scope{Kind: ScopeNone}
		}
		return Scope{Kind: ScopeTeam, TeamID: a.TeamID}
	case RoleSales:
		return Scope{Kind: ScopeOwner, OwnerID: a.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// Visible filtra en memoria con la misma semántica que ScopeFor.
// ownerOf devuelve el dueño del registro; teamOf el equipo de ese dueño
// (puede devolver "" si se desconoce => no visible para managers).
func Visible[T any](a Actor, records []T, ownerOf func(T) string, teamOf func(T) string) []T {
	scope := ScopeFor(a)

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if Allows(scope, ownerOf(rec), teamOf(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// Allows evalúa un registro individual contra un scope ya resuelto.
func Allows(s Scope, ownerID, ownerTeamID string) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeTeam:
		return ownerTeamID != "" && ownerTeamID == s.TeamID
	case ScopeOwner:
		return ownerID == s.OwnerID
	default:
		return false
	}
}

// CanMutate decide si el actor puede modificar un registro ajeno o propio.
// ADMIN siempre; el dueño siempre; MANAGER solo dentro de su equipo.
func CanMutate(a Actor, ownerID, ownerTeamID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	if a.ID != "" && a.ID == ownerID {
		return true
	}
	if a.Role == RoleManager {
		return a.TeamID != "" && ownerTeamID != "" && a.TeamID == ownerTeamID
	}
	return false
}
