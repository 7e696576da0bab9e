package web

import (
	"net/http"

	"github.com/yanizio/hemo/internal/guard"
	"github.com/yanizio/hemo/internal/menu"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
)

// guardMiddleware feeds the route guard from the page load.  The tenant
// check is read without blocking; a first visit answers Pending while the
// validator asks the backend.
func guardMiddleware(s *Shell) func(http.Handler) http.Handler {
	return guard.Middleware(func(r *http.Request) (guard.State, error) {
		p := pageFrom(r.Context())
		snap, err := session.Read(r.Context(), p.store)
		if err != nil {
			return guard.State{}, err
		}
		return guard.State{
			Session: snap,
			Tenant:  p.cfg,
			Status:  s.opts.Validator.Lookup(p.cfg),
		}, nil
	})
}

type pageView struct {
	State string    `json:"state"`
	Path  string    `json:"path"`
	Zone  string    `json:"zone"`
	Menu  *menuView `json:"menu,omitempty"`
}

// handlePage answers a page the guard let through.  Tenant pages are also
// checked against the role's menu; a gated section sends the user home.
func (s *Shell) handlePage(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	zone := guard.ZoneOf(r.URL.Path)
	v := pageView{State: "allow", Path: r.URL.Path, Zone: zone.String()}

	if zone == guard.ZoneTenant {
		role := session.Lookup(r.Context(), p.store, session.KeyRole)
		if !menu.Allowed(role, r.URL.Path) {
			writeJSON(w, p, http.StatusForbidden, struct {
				State    string `json:"state"`
				Location string `json:"location"`
			}{"forbidden", nav.Home})
			return
		}
		mv := newMenuView(role)
		v.Menu = &mv
	}
	writeJSON(w, p, http.StatusOK, v)
}
