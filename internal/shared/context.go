package shared

import "context"

type tenantContextKey struct{}

// ContextWithTenant stores the authenticated tenant id in context.
func ContextWithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext extracts the tenant id from context. ok is false for
// unauthenticated requests.
func TenantFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(tenantContextKey{}).(int64)
	return id, ok
}
