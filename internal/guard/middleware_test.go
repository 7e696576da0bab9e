package guard

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/hemo/internal/tenant"
)

func router(st State, err error) http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware(func(*http.Request) (State, error) { return st, err }))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func TestMiddleware_Allow(t *testing.T) {
	rec := httptest.NewRecorder()
	router(tenantState("tok", tenant.Valid), nil).ServeHTTP(rec, httptest.NewRequest("GET", "/home", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddleware_Redirect(t *testing.T) {
	rec := httptest.NewRecorder()
	router(tenantState("", tenant.Valid), nil).ServeHTTP(rec, httptest.NewRequest("GET", "/home/staff", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?from=%2Fhome%2Fstaff", rec.Header().Get("Location"))
}

func TestMiddleware_Pending(t *testing.T) {
	rec := httptest.NewRecorder()
	router(tenantState("tok", tenant.Pending), nil).ServeHTTP(rec, httptest.NewRequest("GET", "/home", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["state"])
}

func TestMiddleware_Reject(t *testing.T) {
	rec := httptest.NewRecorder()
	router(tenantState("tok", tenant.Invalid("Center not found.")), nil).ServeHTTP(rec, httptest.NewRequest("GET", "/login", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Center not found.")
}

func TestMiddleware_StateError(t *testing.T) {
	rec := httptest.NewRecorder()
	router(State{}, errors.New("redis down")).ServeHTTP(rec, httptest.NewRequest("GET", "/home", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
