package auth

import "encoding/json"

// Result is the uniform outcome of every auth operation.  Failures never
// surface as Go errors; they land in Error, FieldErrors, and
// NeedsVerification.
type Result struct {
	Success           bool                `json:"success"`
	Error             string              `json:"error,omitempty"`
	FieldErrors       map[string][]string `json:"field_errors,omitempty"`
	NeedsVerification bool                `json:"needs_verification,omitempty"`
	UserID            string              `json:"user_id,omitempty"`

	// Payload.  Tokens stay out of JSON renderings.
	AccessToken  string          `json:"-"`
	RefreshToken string          `json:"-"`
	Role         string          `json:"role,omitempty"`
	Center       string          `json:"center,omitempty"`
	Username     string          `json:"username,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

func fail(msg string) Result { return Result{Error: msg} }
