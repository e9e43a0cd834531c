package shared

import "context"

type tenantContextKey struct{}

// ContextWithTenant stores the tenant (dive-center) ID in context.
func ContextWithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext extracts the tenant ID from context. Zero means no
// tenant was attached.
func TenantFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(tenantContextKey{}).(int64)
	return id
}
