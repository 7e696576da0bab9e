// internal/session/cookie.go
//
// Browser session id for the web shell.
//
// Context
//   The web shell serves many browsers from one process, so each browser's
//   Store is scoped to origin + browser id.  The id lives in an opaque
//   HttpOnly cookie, hemo_sid, holding a random UUID.  Tokens never go
//   into the cookie; they stay in the server-side Store.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "hemo_sid"

// BrowserID returns the caller's session id, issuing a fresh cookie when the
// request has none or carries a malformed one.  A new cookie lives for ttl,
// or for the browser session when ttl is zero.
func BrowserID(w http.ResponseWriter, r *http.Request, ttl time.Duration) string {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	ck := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, ck)
	return id
}

// Forget expires the browser cookie.  The server-side keys are cleared
// separately through Clear and the scope released with Factory.Drop.
func Forget(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Scope joins an origin and a browser id into a Store scope.
func Scope(origin, browserID string) string {
	if browserID == "" {
		return origin
	}
	return origin + "/" + browserID
}
