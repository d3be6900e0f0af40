package shared

import (
	"net"
	"net/http"
	"strings"
)

// TenantFromQuery returns the raw tenant key from the query string. The
// legacy kiosks send it as "cliente".
func TenantFromQuery(r *http.Request) string {
	query := r.URL.Query()
	if value := strings.TrimSpace(query.Get("tenant")); value != "" {
		return value
	}
	return strings.TrimSpace(query.Get("cliente"))
}

// ResolveTenant prefers the query string and falls back to a value carried
// in the payload. An empty result means the default tenant.
func ResolveTenant(r *http.Request, payloadTenant string) string {
	if value := TenantFromQuery(r); value != "" {
		return value
	}
	return strings.TrimSpace(payloadTenant)
}

func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
