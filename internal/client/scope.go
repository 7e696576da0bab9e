package client

import "strings"

// Scope names the session namespace a request authenticates with.
type Scope int

const (
	ScopeTenant Scope = iota
	ScopeSuperAdmin
)

func (s Scope) String() string {
	if s == ScopeSuperAdmin {
		return "superadmin"
	}
	return "tenant"
}

// tenantAPIPrefix is where every tenant API base lives.  It contains the
// "/centers/" fragment, so it is matched first.
const tenantAPIPrefix = "/centers/api/"

var (
	superAdminFragments = []string{
		"/api/superadmin/",
		"/api/governorates/",
		"/api/delegations/",
		"/centers/",
	}
	superAdminLoginPaths = []string{
		"/api/superadmin/login/",
		"/api/superadmin-login/",
	}
)

// Classify maps a URL path to its Scope.
func Classify(path string) Scope {
	if strings.HasPrefix(path, tenantAPIPrefix) {
		return ScopeTenant
	}
	for _, p := range superAdminLoginPaths {
		if strings.Contains(path, p) {
			return ScopeTenant
		}
	}
	for _, f := range superAdminFragments {
		if strings.Contains(path, f) {
			return ScopeSuperAdmin
		}
	}
	return ScopeTenant
}
