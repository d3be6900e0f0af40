package middleware

import (
	"context"
	"net/http"

	"github.com/Hugozera/apontamento/internal/domain/tenant"
	"github.com/Hugozera/apontamento/internal/requestctx"
	"github.com/Hugozera/apontamento/internal/transport/http/shared"
)

// Tenant attaches the tenant named in the query string. Requests without one
// address the default tenant.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestctx.WithTenant(r.Context(), tenant.Normalize(shared.TenantFromQuery(r)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTenant(ctx context.Context) string {
	return tenant.Normalize(requestctx.GetTenant(ctx))
}
