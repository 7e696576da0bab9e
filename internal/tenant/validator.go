// internal/tenant/validator.go
//
// Subdomain validation cache.
//
// Context
// -------
// A tenant Config is only usable once the backend confirms its subdomain
// names a live center.  Validator asks once per subdomain, collapses
// concurrent askers through singleflight, and keeps answers in a bounded
// TTL LRU.
//
//   • Check  – blocks until the answer is known.  Used by the CLI.
//   • Lookup – never blocks.  Returns Pending and starts a background check
//     when nothing is cached.  Used by the web shell so the first request
//     can render a loading placeholder.
//
// Transport failures mark the subdomain invalid but are remembered only for
// failureTTL, so a later page load tries again.
package tenant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/hemo/internal/cache"
	"github.com/yanizio/hemo/internal/metrics"
)

// Static defaults.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 256
	checkTimeout      = 15 * time.Second
	failureTTL        = 10 * time.Second

	reasonNoSubdomain = "No tenant subdomain provided"
	reasonDefault     = "Invalid subdomain."
)

// CheckFunc asks the backend about cfg.Subdomain.  err reports a transport
// failure; otherwise valid carries the answer and reason the backend's
// message when it said no.
type CheckFunc func(ctx context.Context, cfg Config) (valid bool, reason string, err error)

// Validator resolves and caches subdomain Status.
type Validator struct {
	check CheckFunc
	sfg   singleflight.Group
	lru   *cache.LRU[string, Status]
	fails *cache.LRU[string, Status]

	mu       sync.Mutex
	inflight map[string]chan struct{} // background checks by subdomain
}

// NewValidator builds a Validator.  ttl <= 0 selects DefaultTTL.
func NewValidator(check CheckFunc, ttl time.Duration, maxEntries int) *Validator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	return &Validator{
		check:    check,
		lru:      cache.New[string, Status](maxEntries, ttl),
		fails:    cache.New[string, Status](maxEntries, failureTTL),
		inflight: make(map[string]chan struct{}),
	}
}

// Check returns the Status for cfg, calling the backend when needed.
func (v *Validator) Check(ctx context.Context, cfg Config) Status {
	if st, ok := v.immediate(cfg); ok {
		return st
	}
	res, _, _ := v.sfg.Do(cfg.Subdomain, func() (any, error) {
		return v.run(ctx, cfg), nil
	})
	return res.(Status)
}

// Lookup returns the cached Status for cfg, or Pending while a background
// check is in flight.
func (v *Validator) Lookup(cfg Config) Status {
	if st, ok := v.immediate(cfg); ok {
		return st
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inflight[cfg.Subdomain]; busy {
		return Pending
	}
	done := make(chan struct{})
	v.inflight[cfg.Subdomain] = done

	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		v.Check(ctx, cfg)

		v.mu.Lock()
		delete(v.inflight, cfg.Subdomain)
		v.mu.Unlock()
	}()
	return Pending
}

// Wait blocks until background checks started by Lookup have finished.
func (v *Validator) Wait() {
	v.mu.Lock()
	pending := make([]chan struct{}, 0, len(v.inflight))
	for _, ch := range v.inflight {
		pending = append(pending, ch)
	}
	v.mu.Unlock()

	for _, ch := range pending {
		<-ch
	}
}

// Forget drops any cached answer for subdomain.
func (v *Validator) Forget(subdomain string) {
	v.lru.Remove(subdomain)
	v.fails.Remove(subdomain)
	metrics.CachedTenants.Set(float64(v.lru.Len()))
}

// immediate answers root configs, empty subdomains, and cache hits.
func (v *Validator) immediate(cfg Config) (Status, bool) {
	if cfg.IsRoot {
		return Valid, true
	}
	if cfg.Subdomain == "" {
		return Invalid(reasonNoSubdomain), true
	}
	if st, ok := v.lru.Get(cfg.Subdomain); ok {
		return st, true
	}
	if st, ok := v.fails.Get(cfg.Subdomain); ok {
		return st, true
	}
	return Status{}, false
}

func (v *Validator) run(ctx context.Context, cfg Config) Status {
	if st, ok := v.lru.Get(cfg.Subdomain); ok {
		return st
	}

	valid, reason, err := v.check(ctx, cfg)
	if err != nil {
		metrics.TenantChecksTotal.WithLabelValues("error").Inc()
		zap.L().Warn("subdomain check failed",
			zap.String("subdomain", cfg.Subdomain), zap.Error(err))
		st := Invalid(reasonDefault)
		v.fails.Add(cfg.Subdomain, st)
		return st
	}

	st := Valid
	if !valid {
		if reason == "" {
			reason = reasonDefault
		}
		st = Invalid(reason)
	}
	metrics.TenantChecksTotal.WithLabelValues(st.State.String()).Inc()
	v.lru.Add(cfg.Subdomain, st)
	metrics.CachedTenants.Set(float64(v.lru.Len()))
	zap.L().Debug("subdomain checked",
		zap.String("subdomain", cfg.Subdomain), zap.String("state", st.State.String()))
	return st
}
