package tenant

import (
	"errors"
	"fmt"
)

// State is the three-valued subdomain validation result.  The zero value is
// StatePending.
type State int

const (
	StatePending State = iota
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "pending"
	}
}

// Status pairs a State with the reason shown when the subdomain is invalid.
type Status struct {
	State  State
	Reason string
}

var (
	Pending = Status{State: StatePending}
	Valid   = Status{State: StateValid}
)

// Invalid builds an invalid Status carrying reason.
func Invalid(reason string) Status { return Status{State: StateInvalid, Reason: reason} }

func (s Status) IsPending() bool { return s.State == StatePending }
func (s Status) IsValid() bool   { return s.State == StateValid }
func (s Status) IsInvalid() bool { return s.State == StateInvalid }

// ErrInvalid is returned by operations that need a validated tenant.
var ErrInvalid = errors.New("tenant: invalid subdomain")

// Err returns nil for a valid Status and ErrInvalid, wrapped with the
// reason, otherwise.
func (s Status) Err() error {
	switch {
	case s.IsValid():
		return nil
	case s.Reason != "":
		return fmt.Errorf("%w: %s", ErrInvalid, s.Reason)
	default:
		return ErrInvalid
	}
}
