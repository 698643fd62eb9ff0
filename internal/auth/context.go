package auth

import "context"

type contextKey struct{}

// AuthContext describes the caller of an authenticated request.
type AuthContext struct {
	AccountID string
	Username  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// AccountID returns the authenticated account id, or "" outside a guarded route.
func AccountID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.AccountID
}
