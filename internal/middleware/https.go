// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/hemo/internal/tenant"
)

// ForceHTTPS wraps h.  If the request is plain HTTP and the host belongs
// to policy's root domain, the wrapper issues a 308 Permanent Redirect to
// the HTTPS version of the same URL.  Development hosts (localhost,
// 127.0.0.1) and foreign hosts pass through unchanged.
func ForceHTTPS(policy tenant.Policy, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.ServeHTTP(w, r)
			return
		}

		host := tenant.NormalizeHost(r.Host)
		if host == policy.RootDomain || strings.HasSuffix(host, "."+policy.RootDomain) {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		h.ServeHTTP(w, r)
	})
}
