// Package nav models the current location of a page and the act of moving
// it.  In the web shell the location is the request path and a navigation
// becomes a redirect; in the CLI it is recorded in the session store so the
// next invocation knows where the user was sent.
package nav

import "sync"

// Well-known locations.
const (
	Root            = "/"
	Login           = "/login"
	VerifyEmail     = "/verify-email"
	SuperAdminLogin = "/superadmin/login"

	Home                = "/home"
	SuperAdminDashboard = "/superadmin/dashboard"
	SuperAdminAddCenter = "/superadmin/add-center"
)

// Navigator reads and changes the current location.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Memory is a Navigator holding the location in process memory.
type Memory struct {
	mu    sync.Mutex
	loc   string
	count int
}

// NewMemory starts at loc.
func NewMemory(loc string) *Memory { return &Memory{loc: loc} }

func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loc
}

// Navigate moves to path.  Navigating to the current location does nothing.
func (m *Memory) Navigate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == m.loc {
		return
	}
	m.loc = path
	m.count++
}

// Count is the number of effective navigations so far.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Moved reports whether any navigation happened.
func (m *Memory) Moved() bool { return m.Count() > 0 }
