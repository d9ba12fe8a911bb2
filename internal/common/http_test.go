package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"real ip wins", map[string]string{"X-Real-IP": "10.0.0.2", "X-Forwarded-For": "10.0.0.3"}, "192.0.2.1:5555", "10.0.0.2"},
		{"left-most forwarded hop", map[string]string{"X-Forwarded-For": "10.0.0.9, 172.16.0.1"}, "192.0.2.1:5555", "10.0.0.9"},
		{"garbage header ignored", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.7", "192.0.2.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, ClientIP(req))
		})
	}
}
