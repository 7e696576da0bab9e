// Package menu gates side-menu sections by role.
//
// The table lists, per known role, the sections that role may not open.
// A role missing from the table disables nothing.  That is deliberate
// fail-open behaviour: new roles get the full menu until someone adds
// them here, and Known lets callers flag such roles for review.
package menu

import "sort"

// Roles issued by the backend.
const (
	RoleLocalAdmin          = "LOCAL_ADMIN"
	RoleSubmitter           = "SUBMITTER"
	RoleMedicalParaStaff    = "MEDICAL_PARA_STAFF"
	RoleTechnical           = "TECHNICAL"
	RoleViewer              = "VIEWER"
	RoleAdministrativeStaff = "AdministrativeStaff"
)

// Section keys.
const (
	Patients      = "patients"
	Staff         = "staff"
	Equipment     = "equipment"
	ExportReport  = "export-report"
	CenterDetails = "center-details"
	Profile       = "user-profile"
)

// Set is a set of section keys.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var disabled = map[string][]string{
	RoleMedicalParaStaff: {Staff, Equipment, ExportReport},
	RoleTechnical:        {Staff, ExportReport, Patients},
	RoleSubmitter:        {Staff, Patients, Equipment},
	RoleViewer:           {Patients, Staff, Equipment, ExportReport},
}

var known = map[string]bool{
	RoleLocalAdmin:          true,
	RoleSubmitter:           true,
	RoleMedicalParaStaff:    true,
	RoleTechnical:           true,
	RoleViewer:              true,
	RoleAdministrativeStaff: true,
}

// Disabled returns the sections role may not open.  The result is a fresh
// Set the caller may modify.
func Disabled(role string) Set {
	out := make(Set)
	for _, k := range disabled[role] {
		out[k] = struct{}{}
	}
	return out
}

// Known reports whether role is one the backend is documented to issue.
func Known(role string) bool { return known[role] }

// Entry is one side-menu item.
type Entry struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Path     string  `json:"path"`
	Disabled bool    `json:"disabled"`
	Children []Entry `json:"children,omitempty"`
}

var layout = []Entry{
	{Key: Patients, Label: "Patients", Path: "/home/patients"},
	{Key: Staff, Label: "Staff", Path: "/home/staff/", Children: []Entry{
		{Label: "Administrative Staff", Path: "/home/staff/administrative"},
		{Label: "Medical Staff", Path: "/home/staff/medical"},
		{Label: "Paramedical Staff", Path: "/home/staff/paramedical"},
		{Label: "Technical Staff", Path: "/home/staff/technical"},
		{Label: "Worker Staff", Path: "/home/staff/worker"},
	}},
	{Key: Equipment, Label: "Equipment", Path: "/home/equipment/", Children: []Entry{
		{Label: "Machine List", Path: "/home/equipment/list"},
	}},
	{Key: ExportReport, Label: "Export Report", Path: "/home/export-report"},
	{Key: CenterDetails, Label: "Center Details", Path: "/home/center-details"},
	{Key: Profile, Label: "Profile", Path: "/home/user-profile"},
}

// Entries returns the side menu for role.  Disabled sections keep their
// place but lose their children, so a gated submenu cannot be expanded.
func Entries(role string) []Entry {
	off := Disabled(role)
	out := make([]Entry, len(layout))
	for i, e := range layout {
		e.Disabled = off.Has(e.Key)
		if e.Disabled {
			e.Children = nil
		} else if len(e.Children) > 0 {
			e.Children = append([]Entry(nil), e.Children...)
		}
		out[i] = e
	}
	return out
}

// Allowed reports whether role may open the section owning path.  Paths
// outside every section are allowed.
func Allowed(role, path string) bool {
	off := Disabled(role)
	for _, e := range layout {
		if off.Has(e.Key) && hasPathPrefix(path, e.Path) {
			return false
		}
	}
	return true
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || prefix[len(prefix)-1] == '/' || path[len(prefix)] == '/'
}
