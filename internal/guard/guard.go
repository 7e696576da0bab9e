// Package guard decides whether a path may be entered.
//
// Two zones are guarded independently: the tenant zone (everything outside
// /superadmin that is not public) and the superadmin zone (/superadmin/*).
// CanEnter is the pure predicate; Evaluate wraps it with the page-level
// rules that precede routing: a pending subdomain check renders a
// placeholder, and an invalid tenant renders an error page instead of any
// tenant-side route.
package guard

import (
	"strings"

	"github.com/yanizio/hemo/internal/metrics"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// Zone is a guarded region of the path space.
type Zone int

const (
	ZonePublic Zone = iota
	ZoneTenant
	ZoneSuperAdmin
)

func (z Zone) String() string {
	switch z {
	case ZoneTenant:
		return "tenant"
	case ZoneSuperAdmin:
		return "superadmin"
	default:
		return "public"
	}
}

// Outcome is what the routing layer should do.
type Outcome int

const (
	Allow    Outcome = iota
	Pending          // subdomain check in flight: render a placeholder
	Redirect         // go to Decision.Location
	Reject           // tenant invalid: render Decision.Reason
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Reject:
		return "reject"
	default:
		return "allow"
	}
}

// State is everything a decision depends on.
type State struct {
	Session session.Snapshot
	Tenant  tenant.Config
	Status  tenant.Status
}

// Decision is the result of Evaluate.  From is the requested path carried
// along a Redirect so the login flow can return to it.
type Decision struct {
	Outcome  Outcome `json:"-"`
	Zone     Zone    `json:"-"`
	Location string  `json:"location,omitempty"`
	From     string  `json:"from,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// ZoneOf classifies path.
func ZoneOf(path string) Zone {
	switch path {
	case nav.Root, nav.Login, nav.VerifyEmail, nav.SuperAdminLogin:
		return ZonePublic
	}
	if superAdminArea(path) {
		return ZoneSuperAdmin
	}
	return ZoneTenant
}

func superAdminArea(path string) bool {
	return path == "/superadmin" || strings.HasPrefix(path, "/superadmin/")
}

// superAdminPages are the only guarded pages under /superadmin.  Any other
// path there goes to the superadmin login.
var superAdminPages = map[string]bool{
	nav.SuperAdminDashboard: true,
	nav.SuperAdminAddCenter: true,
}

// CanEnter reports whether st grants entry to zone.  Zones are independent:
// a tenant token opens nothing under /superadmin and vice versa.
func CanEnter(zone Zone, st State) bool {
	switch zone {
	case ZoneTenant:
		return st.Session.TenantToken != "" && st.Status.IsValid()
	case ZoneSuperAdmin:
		return st.Session.IsSuperAdmin && st.Session.SuperAdminToken != ""
	default:
		return true
	}
}

// LoginFor is the login page that guards zone.
func LoginFor(zone Zone) string {
	if zone == ZoneSuperAdmin {
		return nav.SuperAdminLogin
	}
	return nav.Login
}

// Landing is where "/" sends a visitor on cfg's origin.
func Landing(cfg tenant.Config) string {
	if cfg.IsRoot {
		return nav.SuperAdminLogin
	}
	return nav.Login
}

// Evaluate decides what to do with a request for path.
func Evaluate(path string, st State) Decision {
	d := evaluate(path, st)
	metrics.GuardDecisionsTotal.WithLabelValues(d.Zone.String(), d.Outcome.String()).Inc()
	return d
}

func evaluate(path string, st State) Decision {
	zone := ZoneOf(path)

	// The superadmin area and email verification never wait on the tenant
	// check.
	if !superAdminArea(path) && path != nav.VerifyEmail {
		switch {
		case st.Status.IsPending():
			return Decision{Outcome: Pending, Zone: zone}
		case st.Status.IsInvalid() && !st.Tenant.IsRoot:
			return Decision{Outcome: Reject, Zone: zone, Reason: st.Status.Reason}
		}
	}

	if path == nav.Root {
		return Decision{Outcome: Redirect, Zone: zone, Location: Landing(st.Tenant)}
	}
	if zone == ZoneSuperAdmin && !superAdminPages[path] {
		return Decision{Outcome: Redirect, Zone: zone, Location: nav.SuperAdminLogin}
	}
	if CanEnter(zone, st) {
		return Decision{Outcome: Allow, Zone: zone}
	}
	return Decision{Outcome: Redirect, Zone: zone, Location: LoginFor(zone), From: path}
}
