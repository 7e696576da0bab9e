// internal/web/web.go
//
// Browser-facing shell.
//
// Request life-cycle
// ------------------
//
//  1. requestinfo.Enrich and the access log.
//
//  2. Security headers; ForceHTTPS when configured.
//
//  3. Page load: the Host header is resolved into a tenant.Config, the
//     browser's hemo_sid cookie selects a Store inside the origin scope,
//     and one client.Client plus auth.Service are built for the request.
//
//  4. Routes:
//
//     • /_hemo/*  – JSON operations (login, logout, resources).  Never
//                   guarded; the backend decides.
//     • /*        – page requests, answered by the route guard and the
//                   menu gate with a small JSON document.
//
// Whenever an operation moves the page (401, logout, login success) the
// new location is returned in the X-Hemo-Navigate header.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/middleware"
	"github.com/yanizio/hemo/internal/requestinfo"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// NavigateHeader carries the location a response moved the page to.
const NavigateHeader = "X-Hemo-Navigate"

// Options wires the shell.  Validator answers the guard's tenant check and
// is shared by every request.
type Options struct {
	Resolver   *tenant.Resolver
	Validator  *tenant.Validator
	Sessions   *session.Factory
	Client     config.Client
	ForceHTTPS bool
}

// Shell holds the process-wide dependencies.
type Shell struct {
	opts Options
}

// New builds the shell's router.
func New(opts Options) http.Handler {
	s := &Shell{opts: opts}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Security)
	if opts.ForceHTTPS {
		policy := opts.Resolver.Policy()
		r.Use(func(next http.Handler) http.Handler { return middleware.ForceHTTPS(policy, next) })
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.pageLoad)

		r.Route("/_hemo", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/check-subdomain", s.handleCheckSubdomain)
			r.Post("/login", s.handleLogin)
			r.Post("/superadmin/login", s.handleSuperAdminLogin)
			r.Post("/verify-email", s.handleVerifyEmail)
			r.Post("/logout", s.handleLogout)
			r.Get("/menu", s.handleMenu)
			r.Get("/profile", s.handleProfile)
			r.Get("/user-details", s.handleUserDetails)

			r.Get("/center", s.handleCenterDetails)
			r.Get("/center/report", s.handleCenterReport)

			r.Get("/centers", s.handleCenters)
			r.Post("/centers", s.handleAddCenter)
			r.Get("/governorates", s.handleGovernorates)
			r.Get("/delegations", s.handleDelegations)
		})

		r.Group(func(r chi.Router) {
			r.Use(guardMiddleware(s))
			r.Get("/*", s.handlePage)
		})
	})
	return r
}
