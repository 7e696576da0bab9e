package web

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/auth"
	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// LocationHeader lets the browser say which page it is on when it calls
// a /_hemo operation.  A 401 on the login page itself does not navigate.
const LocationHeader = "X-Hemo-Location"

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

// page is one page load.
type page struct {
	cfg    tenant.Config
	scope  string
	store  session.Store
	nav    *nav.Memory
	client *client.Client
	auth   *auth.Service
}

type pageKey struct{}

func pageFrom(ctx context.Context) *page {
	p, _ := ctx.Value(pageKey{}).(*page)
	return p
}

// pageLoad builds the per-request page and stores it in the context.
func (s *Shell) pageLoad(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := s.opts.Resolver.Resolve(r.Host)
		id := session.BrowserID(w, r, s.opts.Sessions.TTL())

		scope := session.Scope(cfg.Host, id)
		store, err := s.opts.Sessions.Open(scope)
		if err != nil {
			zap.L().Error("open session", zap.String("host", cfg.Host), zap.Error(err))
			writeError(w, nil, http.StatusInternalServerError, "Session unavailable.")
			return
		}

		loc := r.Header.Get(LocationHeader)
		if loc == "" {
			loc = r.URL.Path
		}
		navigator := nav.NewMemory(loc)
		c := client.New(store, navigator, s.opts.Client, csrfFrom(r, cfg)...)
		svc := auth.NewService(c, navigator, cfg, s.opts.Validator)

		p := &page{cfg: cfg, scope: scope, store: store, nav: navigator, client: c, auth: svc}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), pageKey{}, p)))
	})
}

// csrfFrom forwards the browser's csrftoken to the root API, where the
// superadmin endpoints live.
func csrfFrom(r *http.Request, cfg tenant.Config) []client.Option {
	ck, err := r.Cookie(client.CSRFCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	return []client.Option{client.WithCookies(cfg.RootAPIBaseURL,
		&http.Cookie{Name: client.CSRFCookie, Value: ck.Value, Path: "/"})}
}

/*──────────────────────────── responses ────────────────────────────────────*/

func writeJSON(w http.ResponseWriter, p *page, status int, v any) {
	if p != nil && p.nav.Moved() {
		w.Header().Set(NavigateHeader, p.nav.Location())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

type errorBody struct {
	Error       string              `json:"error"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

func writeError(w http.ResponseWriter, p *page, status int, msg string) {
	writeJSON(w, p, status, errorBody{Error: msg})
}

// writeResult answers an auth Result.  Failures are 400, or 422 when the
// backend or local validation named fields.
func writeResult(w http.ResponseWriter, p *page, res auth.Result) {
	status := http.StatusOK
	switch {
	case res.Success:
	case len(res.FieldErrors) > 0:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadRequest
	}
	writeJSON(w, p, status, res)
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, pageFrom(r.Context()), http.StatusBadRequest, "Malformed request body.")
		return false
	}
	return true
}
