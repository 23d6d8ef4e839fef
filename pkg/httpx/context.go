package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyRoles    ctxKey = "roles"
	CtxKeyClaims   ctxKey = "claims" // full jwtx.Claims when a handler needs more
	CtxKeyRawToken ctxKey = "raw_token"
)

// UserIDFromContext returns the authenticated subject, or "" when the
// request carried no valid bearer token.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// RawTokenFromContext returns the compact serialization of the verified
// bearer token.
func RawTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRawToken).(string); ok {
		return v
	}
	return ""
}

func rolesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}
