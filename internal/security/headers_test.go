package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestHeadersSetsHardeningHeaders(t *testing.T) {
	h := Headers{NoStore: true, HSTSMaxAge: 365 * 24 * time.Hour}.Middleware(ok())
	req := httptest.NewRequest(http.MethodGet, "https://kasir.example.com/api/v1/purchases/1", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "max-age=31536000", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersSkipsHSTSWithoutTLS(t *testing.T) {
	h := Headers{HSTSMaxAge: time.Hour}.Middleware(ok())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Empty(t, rr.Header().Get("Cache-Control"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}
