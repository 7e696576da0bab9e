// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// `LoadFrom` calls `validateStruct` after secrets are resolved.  Any tag
// mismatch aborts startup, so neither binary runs with a partial session
// backend or an unusable tenant policy.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
