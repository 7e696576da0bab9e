package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/hemo/internal/auth"
	"github.com/yanizio/hemo/internal/guard"
	"github.com/yanizio/hemo/internal/menu"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
)

/*──────────────────────────── status ───────────────────────────────────────*/

type tokenView struct {
	LoggedIn  bool      `json:"logged_in"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Expired   bool      `json:"expired,omitempty"`
}

func viewToken(tok string, now time.Time) tokenView {
	if tok == "" {
		return tokenView{}
	}
	v := tokenView{LoggedIn: true}
	if info, err := auth.Inspect(tok); err == nil {
		v.ExpiresAt = info.ExpiresAt
		v.Expired = info.Expired(now)
	}
	return v
}

type statusView struct {
	Host       string `json:"host"`
	Subdomain  string `json:"subdomain,omitempty"`
	IsRoot     bool   `json:"is_root"`
	APIBaseURL string `json:"api_base_url"`
	Tenant     struct {
		State  string `json:"state"`
		Reason string `json:"reason,omitempty"`
	} `json:"tenant"`
	Session struct {
		tokenView
		Role   string `json:"role,omitempty"`
		Center string `json:"center,omitempty"`
	} `json:"session"`
	SuperAdmin struct {
		tokenView
		Username string `json:"username,omitempty"`
	} `json:"superadmin"`
}

func (s *Shell) handleStatus(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	snap, err := session.Read(r.Context(), p.store)
	if err != nil {
		writeError(w, p, http.StatusInternalServerError, "Session unavailable.")
		return
	}
	st := s.opts.Validator.Lookup(p.cfg)
	now := time.Now()

	var v statusView
	v.Host, v.Subdomain, v.IsRoot, v.APIBaseURL = p.cfg.Host, p.cfg.Subdomain, p.cfg.IsRoot, p.cfg.APIBaseURL
	v.Tenant.State, v.Tenant.Reason = st.State.String(), st.Reason
	v.Session.tokenView = viewToken(snap.TenantToken, now)
	v.Session.Role, v.Session.Center = snap.Role, snap.Center
	if snap.IsSuperAdmin {
		v.SuperAdmin.tokenView = viewToken(snap.SuperAdminToken, now)
		v.SuperAdmin.Username = snap.SuperAdminUser
	}
	writeJSON(w, p, http.StatusOK, v)
}

/*──────────────────────────── auth operations ──────────────────────────────*/

func (s *Shell) handleCheckSubdomain(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	sub := r.URL.Query().Get("subdomain")
	if sub == "" {
		sub = p.cfg.Subdomain
	}
	writeResult(w, p, p.auth.CheckSubdomain(r.Context(), sub))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// after picks where a successful login lands: the page the guard bounced
// the user from when it is a local path in zone, else def.
func after(from string, zone guard.Zone, def string) string {
	if localPath(from) && guard.ZoneOf(from) == zone {
		return from
	}
	return def
}

// localPath accepts paths on this origin only.  Browsers read "//host" and
// "/\host" as another origin.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

func (s *Shell) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	var in loginRequest
	if !decode(w, r, &in) {
		return
	}

	res := p.auth.LoginTenant(r.Context(), in.Username, in.Password)
	switch {
	case res.Success:
		p.nav.Navigate(after(in.From, guard.ZoneTenant, nav.Home))
	case res.NeedsVerification:
		p.nav.Navigate(nav.VerifyEmail)
	}
	writeResult(w, p, res)
}

func (s *Shell) handleSuperAdminLogin(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	var in loginRequest
	if !decode(w, r, &in) {
		return
	}

	res := p.auth.LoginSuperAdmin(r.Context(), in.Username, in.Password)
	if res.Success {
		p.nav.Navigate(after(in.From, guard.ZoneSuperAdmin, nav.SuperAdminDashboard))
	}
	writeResult(w, p, res)
}

type verifyRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"verification_code"`
}

func (s *Shell) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	var in verifyRequest
	if !decode(w, r, &in) {
		return
	}

	res := p.auth.VerifyEmail(r.Context(), in.UserID, in.Code)
	if res.Success {
		p.nav.Navigate(nav.Login)
	}
	writeResult(w, p, res)
}

func (s *Shell) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	if err := p.auth.Logout(r.Context()); err != nil {
		writeError(w, p, http.StatusInternalServerError, "Failed to clear session.")
		return
	}
	session.Forget(w)
	s.opts.Sessions.Drop(p.scope)
	writeJSON(w, p, http.StatusOK, auth.Result{Success: true})
}

/*──────────────────────────── menu and profile ─────────────────────────────*/

type menuView struct {
	Role     string       `json:"role"`
	Known    bool         `json:"known"`
	Disabled []string     `json:"disabled"`
	Entries  []menu.Entry `json:"entries"`
}

func newMenuView(role string) menuView {
	return menuView{
		Role:     role,
		Known:    menu.Known(role),
		Disabled: menu.Disabled(role).Sorted(),
		Entries:  menu.Entries(role),
	}
}

func (s *Shell) handleMenu(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	writeJSON(w, p, http.StatusOK, newMenuView(session.Lookup(r.Context(), p.store, session.KeyRole)))
}

func (s *Shell) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	writeResult(w, p, p.auth.UserProfile(r.Context()))
}

func (s *Shell) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	writeResult(w, p, p.auth.UserDetails(r.Context()))
}
