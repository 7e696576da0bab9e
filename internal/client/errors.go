package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthorized is returned for every 401 on an authenticated request,
// after the matching session namespace has been cleared.
var ErrUnauthorized = errors.New("Unauthorized request")

// APIError is a non-2xx response.  Message and Fields come from the
// backend's {error} or {errors:{field:[...]}} body when present.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Status == 401 {
		return ErrUnauthorized.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return e.fieldSummary()
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.Status == 401 {
		return ErrUnauthorized
	}
	return nil
}

func (e *APIError) fieldSummary() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// MessageOr returns the backend message carried by err, or def.
func MessageOr(err error, def string) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return def
}

// FieldsOf returns the per-field errors carried by err, if any.
func FieldsOf(err error) map[string][]string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

type errorBody struct {
	Error   string                     `json:"error"`
	Detail  string                     `json:"detail"`
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// parseAPIError builds an APIError from a response body that may or may
// not be JSON.
func parseAPIError(status int, body []byte) *APIError {
	ae := &APIError{Status: status, Body: body}
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil {
		return ae
	}
	switch {
	case eb.Error != "":
		ae.Message = eb.Error
	case eb.Detail != "":
		ae.Message = eb.Detail
	case eb.Message != "":
		ae.Message = eb.Message
	}
	if len(eb.Errors) > 0 {
		ae.Fields = make(map[string][]string, len(eb.Errors))
		for k, raw := range eb.Errors {
			ae.Fields[k] = fieldMessages(raw)
		}
	}
	return ae
}

// fieldMessages accepts ["a","b"] or "a".
func fieldMessages(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return []string{one}
	}
	return []string{string(raw)}
}
