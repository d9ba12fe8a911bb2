package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address used for rate limit keys and request
// logs. Proxy headers are honoured only when they hold a parseable IP:
// X-Real-IP first, then the left-most X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return strings.TrimSpace(host)
}

func parseIP(v string) string {
	ip := net.ParseIP(strings.TrimSpace(v))
	if ip == nil {
		return ""
	}
	return ip.String()
}
