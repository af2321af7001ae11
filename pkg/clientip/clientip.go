package clientip

import (
	"context"
	"net"
	"net/http"
	"net/textproto"
	"strings"
)

// Resolver extracts client addresses, checking trusted headers in order
// before falling back to RemoteAddr.
type Resolver struct {
	headers []string
}

// New returns a Resolver trusting headers in the given order. With no
// headers only RemoteAddr is used.
func New(headers ...string) *Resolver {
	r := &Resolver{}
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			r.headers = append(r.headers, textproto.CanonicalMIMEHeaderKey(h))
		}
	}
	return r
}

// IP returns the normalised client address, or "" when none is valid.
func (rs *Resolver) IP(r *http.Request) string {
	for _, h := range rs.headers {
		value := r.Header.Get(h)
		if value == "" {
			continue
		}
		// X-Forwarded-For style lists carry the originating client first.
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// Middleware stores the resolved address in the request context.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), rs.IP(r))))
	})
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}
