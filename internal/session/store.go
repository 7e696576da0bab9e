// internal/session/store.go
//
// Session store contract and key namespaces.
//
// Context
// -------
// The session is a flat map of named string keys persisted until cleared.
// Two disjoint namespaces coexist: the tenant session and the superadmin
// session.  Nothing here tracks expiry; the server discovers it and the
// HTTP client clears the matching namespace on 401.
//
// Every Store is scoped to one origin (a hostname) at construction, the
// same way browser storage is scoped per subdomain.  Implementations must
// make each Get, Set, and Remove atomic with respect to the others.
package session

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Tenant namespace.
const (
	KeyTenantToken        = "tenant-token"
	KeyTenantRefreshToken = "tenant-refresh-token"
	KeyRole               = "role"
	KeyCenter             = "center"
)

// Superadmin namespace.
const (
	KeySuperAdminToken        = "super-admin-token"
	KeySuperAdminRefreshToken = "super-admin-refresh-token"
	KeyIsSuperAdmin           = "isSuperAdmin"
	KeySuperAdminUsername     = "superAdminUsername"
)

// TenantKeys and SuperAdminKeys list each namespace in a stable order.
var (
	TenantKeys = []string{
		KeyTenantToken, KeyTenantRefreshToken, KeyRole, KeyCenter,
	}
	SuperAdminKeys = []string{
		KeySuperAdminToken, KeySuperAdminRefreshToken, KeyIsSuperAdmin, KeySuperAdminUsername,
	}
)

// Store is origin-scoped key-value persistence.  Get reports ok == false
// for a missing key.  Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Clear removes every key, continuing past failures and returning them
// together.
func Clear(ctx context.Context, s Store, keys ...string) error {
	var result *multierror.Error
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// SetAll writes kv in slice order and stops at the first failure.
func SetAll(ctx context.Context, s Store, kv ...[2]string) error {
	for _, p := range kv {
		if err := s.Set(ctx, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the value for key, or "" when missing or unreadable.
func Lookup(ctx context.Context, s Store, key string) string {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ""
	}
	return v
}
