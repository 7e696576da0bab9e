package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/hemo/internal/config"
)

func TestBrowserID_IssuesCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id := BrowserID(rec, req, time.Hour)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cookies[0].Expires, time.Minute)
}

func TestBrowserID_ZeroTTLIsABrowserSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	BrowserID(rec, req, 0)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Expires.IsZero())
}

func TestBrowserID_ReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: existing})

	assert.Equal(t, existing, BrowserID(rec, req, time.Hour))
	assert.Empty(t, rec.Result().Cookies())
}

func TestBrowserID_ReplacesMalformedCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})

	id := BrowserID(rec, req, time.Hour)
	assert.NotEqual(t, "not-a-uuid", id)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestScope(t *testing.T) {
	assert.Equal(t, "cilo.cimssante.com", Scope("cilo.cimssante.com", ""))
	assert.Equal(t, "cilo.cimssante.com/x", Scope("cilo.cimssante.com", "x"))
}

func newMemoryFactory(t *testing.T, cfg config.Session) *Factory {
	t.Helper()
	cfg.Backend = "memory"
	f, err := NewFactory(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFactory_MemoryScopesAreIsolated(t *testing.T) {
	f := newMemoryFactory(t, config.Session{})

	a, err := f.Open("a")
	require.NoError(t, err)
	a2, err := f.Open("a")
	require.NoError(t, err)
	b, err := f.Open("b")
	require.NoError(t, err)

	assert.Same(t, a, a2)
	assert.NotSame(t, a, b)
}

func TestFactory_MemoryEvictsLeastRecentScope(t *testing.T) {
	f := newMemoryFactory(t, config.Session{MaxScopes: 2})
	ctx := context.Background()

	a, _ := f.Open("cilo.hemo.test/a")
	require.NoError(t, a.Set(ctx, KeyTenantToken, "tok"))
	f.Open("cilo.hemo.test/b")
	f.Open("cilo.hemo.test/c")

	again, _ := f.Open("cilo.hemo.test/a")
	assert.NotSame(t, a, again)
	_, ok, err := again.Get(ctx, KeyTenantToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFactory_MemoryScopeExpires(t *testing.T) {
	f := newMemoryFactory(t, config.Session{TTL: 10 * time.Millisecond})
	a, _ := f.Open("a")
	require.NoError(t, a.Set(context.Background(), KeyRole, "VIEWER"))

	assert.Eventually(t, func() bool {
		s, _ := f.Open("a")
		return s != a
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, f.TTL())
}

func TestFactory_DropReleasesScope(t *testing.T) {
	f := newMemoryFactory(t, config.Session{})
	a, _ := f.Open("a")

	f.Drop("a")

	again, _ := f.Open("a")
	assert.NotSame(t, a, again)
}
