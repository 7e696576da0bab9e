// internal/client/client.go
//
// REST client wrapper that attaches session credentials and enforces the
// 401 policy.
//
// Context
// -------
// Every backend call goes through Client.  On the way out a request is
// classified into a Scope by its URL path and decorated:
//
//   • superadmin → Authorization: Bearer <super-admin-token>, plus
//     X-CSRFToken from the csrftoken cookie for non-GET methods.
//   • tenant     → Authorization: Bearer <tenant-token> when present.
//
// On the way back a 401 clears that scope's namespace and navigates to its
// login page unless already there.  The clear and the navigation run under
// one mutex so concurrent 401s collapse into repeated no-ops.
//
// Anonymous requests (check-subdomain) skip both halves.
//
// Transport retries come from go-retryablehttp and apply to GET and HEAD
// only.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/metrics"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
)

// CSRFCookie names the cookie whose value superadmin writes echo back.
const CSRFCookie = "csrftoken"

const (
	csrfHeader = "X-CSRFToken"

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 64 << 10
)

// Request describes one backend call.  URL is absolute.  Body, when not
// nil, is sent as JSON.  SuperAdmin forces superadmin scope for endpoints
// whose path carries none of the superadmin fragments.
type Request struct {
	Method     string
	URL        string
	Query      url.Values
	Body       any
	Anonymous  bool
	SuperAdmin bool
}

// Response is the part of a successful reply callers may need.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is safe for concurrent use.
type Client struct {
	store session.Store
	nav   nav.Navigator
	hc    *retryablehttp.Client
	jar   http.CookieJar

	authMu sync.Mutex // serialises 401 clear+redirect
}

// Option adjusts a Client at construction.
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. to dial the backend at
// an internal address.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.hc.HTTPClient.Transport = rt }
}

// WithUpstream sends every request to addr (host:port) whatever the URL's
// host says.  The Host header and TLS server name still follow the URL.
func WithUpstream(addr string) Option {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	d := &net.Dialer{Timeout: 10 * time.Second}
	tr.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		return d.DialContext(ctx, network, addr)
	}
	return WithTransport(tr)
}

// WithCookies seeds the jar with cookies for rawURL, e.g. the csrftoken a
// browser presented to the web shell.
func WithCookies(rawURL string, cookies ...*http.Cookie) Option {
	return func(c *Client) {
		u, err := url.Parse(rawURL)
		if err != nil {
			zap.L().Warn("seed cookies", zap.String("url", rawURL), zap.Error(err))
			return
		}
		c.jar.SetCookies(u, cookies)
	}
}

// New builds a Client over store and navigator using cfg's timeout, retry
// budget, and upstream override.
func New(store session.Store, navigator nav.Navigator, cfg config.Client, opts ...Option) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	hc := retryablehttp.NewClient()
	hc.HTTPClient = &http.Client{Timeout: cfg.Timeout, Jar: jar}
	hc.RetryMax = cfg.RetryMax
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.CheckRetry = idempotentRetryPolicy
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc.Logger = leveledLogger{zap.S().Named("http")}

	c := &Client{store: store, nav: navigator, hc: hc, jar: jar}
	if cfg.Upstream != "" {
		opts = append([]Option{WithUpstream(cfg.Upstream)}, opts...)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store returns the session store the client decorates from.
func (c *Client) Store() session.Store { return c.store }

// Jar exposes the cookie jar so callers can seed or persist cookies.
func (c *Client) Jar() http.CookieJar { return c.jar }

// Do sends req and decodes a 2xx JSON body into out when out is not nil.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read %s: %w", req.URL, err)
	}
	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("client: decode %s: %w", req.URL, err)
		}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Stream sends req and copies a 2xx body to w.  The returned Response has a
// nil Body.
func (c *Client) Stream(ctx context.Context, req Request, w io.Writer) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, fmt.Errorf("client: stream %s: %w", req.URL, err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header}, nil
}

// send performs the round trip and returns a 2xx response with its body
// open, or an error.  Non-2xx bodies are consumed here.
func (c *Client) send(ctx context.Context, req Request) (*http.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("client: bad url %q: %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var payload interface{}
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		payload = b
	}

	ctx = context.WithValue(ctx, methodKey{}, method)
	rr, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, err
	}
	rr.Header.Set("Accept", "application/json")
	if payload != nil {
		rr.Header.Set("Content-Type", "application/json")
	}

	scope := Classify(u.Path)
	if req.SuperAdmin {
		scope = ScopeSuperAdmin
	}
	if !req.Anonymous {
		c.decorate(ctx, rr.Request, scope, u)
	}

	start := time.Now()
	resp, err := c.hc.Do(rr)
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(scope.String(), "error").Inc()
		zap.L().Warn("request failed",
			zap.String("method", method), zap.String("path", u.Path), zap.Error(err))
		return nil, fmt.Errorf("client: %s %s: %w", method, u.Path, err)
	}
	metrics.ClientRequestsTotal.WithLabelValues(scope.String(), statusClass(resp.StatusCode)).Inc()
	zap.L().Debug("request",
		zap.String("method", method),
		zap.String("path", u.Path),
		zap.String("scope", scope.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	apiErr := parseAPIError(resp.StatusCode, raw)

	if resp.StatusCode == http.StatusUnauthorized && !req.Anonymous {
		c.unauthorized(ctx, scope)
	}
	return nil, apiErr
}

// decorate attaches the scope's bearer token and, for superadmin writes,
// the CSRF token.
func (c *Client) decorate(ctx context.Context, r *http.Request, scope Scope, u *url.URL) {
	key := session.KeyTenantToken
	if scope == ScopeSuperAdmin {
		key = session.KeySuperAdminToken
	}
	if tok := session.Lookup(ctx, c.store, key); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}

	if scope != ScopeSuperAdmin || r.Method == http.MethodGet {
		return
	}
	if tok := c.csrfToken(u); tok != "" {
		r.Header.Set(csrfHeader, tok)
		return
	}
	zap.L().Warn("CSRF token not found in cookies", zap.String("path", u.Path))
}

func (c *Client) csrfToken(u *url.URL) string {
	for _, ck := range c.jar.Cookies(u) {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	return ""
}

// unauthorized clears scope's namespace and sends the user to its login.
func (c *Client) unauthorized(ctx context.Context, scope Scope) {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	keys, login := session.TenantKeys, nav.Login
	if scope == ScopeSuperAdmin {
		keys, login = session.SuperAdminKeys, nav.SuperAdminLogin
	}

	// The namespace must go even if the caller's ctx is already done.
	if err := session.Clear(context.WithoutCancel(ctx), c.store, keys...); err != nil {
		zap.L().Error("clear session after 401", zap.String("scope", scope.String()), zap.Error(err))
	}
	metrics.ClientUnauthorizedTotal.WithLabelValues(scope.String()).Inc()

	if c.nav.Location() != login {
		c.nav.Navigate(login)
	}
	zap.L().Info("session expired", zap.String("scope", scope.String()))
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

// IsUnauthorized reports whether err came from a 401.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
