package guard

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// StateFunc produces the guard State for a request.
type StateFunc func(r *http.Request) (State, error)

// Middleware enforces Evaluate in front of next.  Redirects are 303 with a
// "from" query parameter; Pending answers 202 with Retry-After so the shell
// can poll; Reject answers 404 with the tenant reason.
func Middleware(state StateFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := state(r)
			if err != nil {
				zap.L().Error("guard state", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			d := Evaluate(r.URL.Path, st)
			switch d.Outcome {
			case Allow:
				next.ServeHTTP(w, r)
			case Redirect:
				http.Redirect(w, r, redirectURL(d), http.StatusSeeOther)
			case Pending:
				w.Header().Set("Retry-After", "1")
				writeDecision(w, http.StatusAccepted, "pending", d)
			case Reject:
				writeDecision(w, http.StatusNotFound, "invalid-tenant", d)
			}
		})
	}
}

func redirectURL(d Decision) string {
	if d.From == "" {
		return d.Location
	}
	return d.Location + "?" + url.Values{"from": {d.From}}.Encode()
}

func writeDecision(w http.ResponseWriter, status int, state string, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		State string `json:"state"`
		Decision
	}{state, d})
}
