// internal/tenant/resolver.go
//
// Hostname → tenant resolution.
//
// Context
// -------
// Every tenant (a dialysis center) lives on its own subdomain of the root
// domain.  The apex, `www.`, `localhost`, and `127.0.0.1` are the root
// (superadmin) surface.  Resolve never fails; anything it cannot place on
// a tenant falls back to root.
//
// Policy
// ------
//   • The root domain is kept without `www.`, and every URL built here
//     omits it: `www.cimssante.com` and `cimssante.com` both resolve to
//     `https://cimssante.com/api/`.
//   • The scheme comes from config (https in production).  The request's
//     port is never carried into API URLs.
package tenant

import (
	"net"
	"strings"
)

// DefaultScheme is used when a Policy leaves Scheme empty.
const DefaultScheme = "https"

// Config is the per-page-load view of the current tenant.  It is built once
// and never mutated.
type Config struct {
	Host           string // normalised hostname, no port
	Subdomain      string // empty for root
	IsRoot         bool
	APIBaseURL     string
	RootAPIBaseURL string
}

// Policy fixes the root domain and URL scheme the resolver builds from.
type Policy struct {
	RootDomain string
	Scheme     string
}

// NewPolicy canonicalises rootDomain (lowercase, no `www.`, no trailing
// dot) and defaults the scheme.
func NewPolicy(rootDomain, scheme string) Policy {
	rd := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(rootDomain)), ".")
	rd = strings.TrimPrefix(rd, "www.")
	if scheme == "" {
		scheme = DefaultScheme
	}
	return Policy{RootDomain: rd, Scheme: strings.ToLower(scheme)}
}

// Resolver maps hostnames onto Configs under one Policy.
type Resolver struct {
	policy     Policy
	rootLabels int
}

// NewResolver returns a Resolver for p.
func NewResolver(p Policy) *Resolver {
	return &Resolver{
		policy:     p,
		rootLabels: len(strings.Split(p.RootDomain, ".")),
	}
}

// Policy returns the resolver's policy.
func (r *Resolver) Policy() Policy { return r.policy }

// Resolve classifies host and computes the API base URLs.
func (r *Resolver) Resolve(host string) Config {
	h := NormalizeHost(host)
	root := r.policy.RootDomain
	parts := strings.Split(h, ".")

	cfg := Config{Host: h, IsRoot: true}
	switch {
	case h == "localhost", h == "127.0.0.1", h == root, h == "www."+root:
	case parts[0] == "www":
	case len(parts) > r.rootLabels && parts[0] != "":
		cfg.IsRoot = false
		cfg.Subdomain = parts[0]
	}

	cfg.RootAPIBaseURL = r.policy.Scheme + "://" + root + "/api/"
	if cfg.IsRoot {
		cfg.APIBaseURL = cfg.RootAPIBaseURL
	} else {
		cfg.APIBaseURL = r.policy.Scheme + "://" + cfg.Subdomain + "." + root + "/centers/api/"
	}
	return cfg
}

// NormalizeHost lowercases h and removes any `:port` and trailing dot.
func NormalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return strings.TrimSuffix(h, ".")
}

// StripWWW drops a leading "www." label from an absolute http(s) URL.
func StripWWW(u string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(u, scheme+"www."); ok {
			return scheme + rest
		}
	}
	return u
}
