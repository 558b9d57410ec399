package domain

import "slices"

// Principal is the authenticated caller, derived from a verified IdP token.
// It is passed explicitly into service operations that gate on capability
// rather than read from ambient session state.
type Principal struct {
	Subject string
	Name    string
	Scopes  []string
}

const (
	ScopeCheckinRead  = "checkin:read"
	ScopeCheckinWrite = "checkin:write"
	ScopeAdminRead    = "admin:read"
	ScopeAdminWrite   = "admin:write"
)

func (p Principal) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// IsAdmin reports whether the caller holds an elevated capability. Undo
// resolution and pending-request listings require this.
func (p Principal) IsAdmin() bool {
	return p.HasScope(ScopeAdminRead) || p.HasScope(ScopeAdminWrite)
}
