// Package httputil resolves the originating client address of API
// requests for the request log.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// AddrResolver maps a request to the client address recorded in the API
// request log. With TrustProxy unset only the socket peer is reported, so
// forwarded headers can never masquerade as another caller; set it when
// leoptimd runs behind a reverse proxy that overwrites those headers.
type AddrResolver struct {
	TrustProxy bool
}

// ClientIP returns the client address for one request: the first
// X-Forwarded-For hop or X-Real-IP when proxy headers are trusted,
// otherwise the socket peer with its port stripped.
func (ar AddrResolver) ClientIP(r *http.Request) string {
	if ar.TrustProxy {
		if ip := forwardedClient(r.Header); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedClient extracts the original client from proxy headers. The
// leftmost X-Forwarded-For entry is the caller; everything after it names
// intermediate proxies.
func forwardedClient(h http.Header) string {
	xff := h.Get("X-Forwarded-For")
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	if ip := strings.TrimSpace(xff); ip != "" {
		return ip
	}
	return strings.TrimSpace(h.Get("X-Real-IP"))
}
