package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

type fixture struct {
	srv   *httptest.Server
	store *session.Memory
	nav   *nav.Memory
	svc   *Service

	mu   sync.Mutex
	seen []*http.Request
	body map[string]any
}

func (f *fixture) requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.seen...)
}

func (f *fixture) lastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body
}

// newFixture serves mux under a tenant config pointing at the test server.
func newFixture(t *testing.T, mux *http.ServeMux) *fixture {
	t.Helper()
	f := &fixture{store: session.NewMemory(), nav: nav.NewMemory(nav.Login)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.seen = append(f.seen, r.Clone(r.Context()))
		f.body = body
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)

	cfg := tenant.Config{
		Host:           "cilo.cimssante.com",
		Subdomain:      "cilo",
		APIBaseURL:     f.srv.URL + "/centers/api/",
		RootAPIBaseURL: f.srv.URL + "/api/",
	}
	c := client.New(f.store, f.nav, config.Client{Timeout: 5 * time.Second})
	f.svc = NewService(c, f.nav, cfg, nil)
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func keys(t *testing.T, s session.Store, ks []string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, k := range ks {
		if v, ok, _ := s.Get(context.Background(), k); ok {
			out[k] = v
		}
	}
	return out
}

func TestLoginTenant_StoresExactlyTenantKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"access": "a", "refresh": "r", "role": "VIEWER", "center": "cilo"})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "VIEWER", res.Role)
	assert.Equal(t, map[string]string{
		session.KeyTenantToken:        "a",
		session.KeyTenantRefreshToken: "r",
		session.KeyRole:               "VIEWER",
		session.KeyCenter:             "cilo",
	}, keys(t, f.store, session.TenantKeys))
	assert.Empty(t, keys(t, f.store, session.SuperAdminKeys))
	assert.Equal(t, 4, f.store.Len())
	assert.Equal(t, "amine", f.lastBody()["username"])
	assert.Equal(t, http.MethodPost, f.requests()[0].Method)
}

func TestLoginTenant_DefaultsRoleAndCenter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"access": "a", "refresh": "r"})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	require.True(t, res.Success)
	assert.Equal(t, DefaultRole, res.Role)
	assert.Equal(t, "cilo", res.Center)
	assert.Equal(t, "cilo", session.Lookup(context.Background(), f.store, session.KeyCenter))
}

func TestLoginTenant_MissingTokensIsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"access": "a"})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	assert.False(t, res.Success)
	assert.Equal(t, msgLoginFailed, res.Error)
	assert.Zero(t, f.store.Len())
}

func TestLoginTenant_NeedsVerification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 403, map[string]any{"error": "Email verification required.", "user_id": 42})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	assert.False(t, res.Success)
	assert.True(t, res.NeedsVerification)
	assert.Equal(t, "42", res.UserID)
	assert.Zero(t, f.store.Len())
}

func TestLoginTenant_Other403IsGenericFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 403, map[string]any{"error": "Account disabled.", "user_id": 42})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	assert.False(t, res.NeedsVerification)
	assert.Equal(t, "Account disabled.", res.Error)
}

func TestLoginTenant_VerificationMessageMustMatchExactly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 403, map[string]any{"error": "Email verification required", "user_id": 42})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")

	assert.False(t, res.Success)
	assert.False(t, res.NeedsVerification)
	assert.Empty(t, res.UserID)
	assert.Equal(t, "Email verification required", res.Error)
}

func TestLoginTenant_ServerErrorWithoutBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/login/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newFixture(t, mux)

	res := f.svc.LoginTenant(context.Background(), "amine", "secret")
	assert.Equal(t, msgLoginFailed, res.Error)
}

func TestLoginTenant_RejectsBlankInput(t *testing.T) {
	f := newFixture(t, http.NewServeMux())

	res := f.svc.LoginTenant(context.Background(), "  ", "")

	assert.False(t, res.Success)
	assert.Contains(t, res.FieldErrors, "username")
	assert.Contains(t, res.FieldErrors, "password")
	assert.Empty(t, f.requests(), "no request for invalid input")
}

func TestLoginSuperAdmin_StoresSuperAdminKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/superadmin-login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data": map[string]any{
				"access_token":  "sa",
				"refresh_token": "sr",
				"user":          map[string]string{"username": "root"},
			},
		})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginSuperAdmin(context.Background(), "root", "pw")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]string{
		session.KeySuperAdminToken:        "sa",
		session.KeySuperAdminRefreshToken: "sr",
		session.KeyIsSuperAdmin:           "true",
		session.KeySuperAdminUsername:     "root",
	}, keys(t, f.store, session.SuperAdminKeys))
	assert.Empty(t, keys(t, f.store, session.TenantKeys))
}

func TestLoginSuperAdmin_UnsuccessfulBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/superadmin-login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": false, "error": "Invalid credentials"})
	})
	f := newFixture(t, mux)

	res := f.svc.LoginSuperAdmin(context.Background(), "root", "bad")

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Error)
	assert.Zero(t, f.store.Len())
}

func TestVerifyEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/verify-user/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "message": "Verified"})
	})
	f := newFixture(t, mux)

	res := f.svc.VerifyEmail(context.Background(), "42", "123456")

	assert.True(t, res.Success)
	assert.Equal(t, "42", f.lastBody()["user_id"])
	assert.Equal(t, "123456", f.lastBody()["verification_code"])
}

func TestVerifyEmail_FailureIsAResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/verify-user/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, map[string]any{"error": "Invalid verification code."})
	})
	f := newFixture(t, mux)

	res := f.svc.VerifyEmail(context.Background(), "42", "000000")

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid verification code.", res.Error)
}

func TestVerifyEmail_MissingUserID(t *testing.T) {
	f := newFixture(t, http.NewServeMux())

	res := f.svc.VerifyEmail(context.Background(), "", "123456")

	assert.False(t, res.Success)
	assert.Contains(t, res.FieldErrors, "user_id")
	assert.Empty(t, f.requests())
}

func TestLogout_ClearsBothNamespacesIdempotently(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	ctx := context.Background()
	for _, k := range append(append([]string{}, session.TenantKeys...), session.SuperAdminKeys...) {
		require.NoError(t, f.store.Set(ctx, k, "x"))
	}
	f.nav.Navigate("/home")

	require.NoError(t, f.svc.Logout(ctx))
	assert.Zero(t, f.store.Len())
	assert.Equal(t, nav.Login, f.nav.Location())

	require.NoError(t, f.svc.Logout(ctx))
	assert.Zero(t, f.store.Len())
	assert.Equal(t, nav.Login, f.nav.Location())
}

func TestCheckSubdomain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/check-subdomain/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subdomain") == "cilo" {
			writeJSON(w, 200, map[string]string{"center": "CILO"})
			return
		}
		writeJSON(w, 404, map[string]string{"error": "Center not found."})
	})
	f := newFixture(t, mux)
	ctx := context.Background()

	ok := f.svc.CheckSubdomain(ctx, "cilo")
	assert.True(t, ok.Success)

	bad := f.svc.CheckSubdomain(ctx, "ghost")
	assert.False(t, bad.Success)
	assert.Equal(t, "Center not found.", bad.Error)
	assert.Empty(t, f.requests()[0].Header.Get("Authorization"))
}

func TestSubdomainChecker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/check-subdomain/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]string{"error": "Center not found."})
	})
	f := newFixture(t, mux)
	check := SubdomainChecker(f.svc.client)

	valid, reason, err := check(context.Background(), f.svc.Config())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, "Center not found.", reason)

	f.srv.Close()
	_, _, err = check(context.Background(), f.svc.Config())
	assert.Error(t, err, "transport failure is an error, not an answer")
}

func TestUserDetails_NeedsToken(t *testing.T) {
	f := newFixture(t, http.NewServeMux())

	res := f.svc.UserDetails(context.Background())

	assert.Equal(t, msgNoToken, res.Error)
	assert.Empty(t, f.requests())
}

func TestUserDetails_InvalidTenant(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	f.svc.validator = tenant.NewValidator(func(context.Context, tenant.Config) (bool, string, error) {
		return false, "Center not found.", nil
	}, time.Minute, 4)

	res := f.svc.UserDetails(context.Background())
	assert.Equal(t, "Center not found.", res.Error)
}

func TestUserProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/centers/api/user-profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"username": "amine"})
	})
	f := newFixture(t, mux)
	require.NoError(t, f.store.Set(context.Background(), session.KeyTenantToken, "tok"))

	res := f.svc.UserProfile(context.Background())

	require.True(t, res.Success)
	assert.JSONEq(t, `{"username":"amine"}`, string(res.Data))
	assert.Equal(t, "Bearer tok", f.requests()[0].Header.Get("Authorization"))
}
