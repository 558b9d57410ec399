package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyName   ctxKey = "name"
	CtxKeyScopes ctxKey = "scopes"
)

// UserIDFromContext returns the authenticated subject, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// NameFromContext returns the caller's display name, if the token carried one.
func NameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyName).(string); ok {
		return v
	}
	return ""
}

// ScopesFromContext returns the caller's scopes.
func ScopesFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
