package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	middleware := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true}
	req := httptest.NewRequest(http.MethodGet, "https://example.com/api/v1/products", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	middleware.Middleware(okHandler()).ServeHTTP(rr, req)

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "max-age=600; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
	require.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestHeadersMiddlewareNoStore(t *testing.T) {
	middleware := Headers{Enable: true, NoStorePrefixes: []string{"/api/v1/baskets"}}
	rr := httptest.NewRecorder()
	middleware.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/baskets/abc", nil))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	middleware := Headers{Enable: false, EnableHSTS: true}
	rr := httptest.NewRecorder()
	middleware.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
