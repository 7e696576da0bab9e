// internal/session/factory.go
//
// Factory opens Stores for scopes on the configured backend.  Connections
// (Redis client, SQL pool) are shared by every scope and released by Close.
//
// Browser sessions are bounded by Session.TTL on every server-side backend:
// memory scopes live in a TTL LRU capped at Session.MaxScopes, Redis hashes
// carry an expiry refreshed on write, and SQL rows older than the TTL are
// pruned by a background loop.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/cache"
	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/database"
)

const (
	defaultMaxScopes = 10000
	pruneEvery       = time.Hour
)

// Factory hands out Stores.  Safe for concurrent use.
type Factory struct {
	backend string
	dir     string
	ttl     time.Duration
	rdb     *redis.Client
	db      *sqlx.DB

	mu  sync.Mutex
	mem *cache.LRU[string, *Memory]

	stop context.CancelFunc
	done chan struct{}
}

// NewFactory connects the backend named by cfg.Backend.
func NewFactory(ctx context.Context, cfg config.Session) (*Factory, error) {
	f := &Factory{backend: cfg.Backend, dir: cfg.Dir, ttl: cfg.TTL}
	switch cfg.Backend {
	case "memory":
		f.mem = newScopeCache(cfg.MaxScopes, cfg.TTL)
	case "file":
	case "redis":
		rdb, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		f.rdb = rdb
	case "sql":
		db, err := database.Open(ctx, cfg.SQLDSN)
		if err != nil {
			return nil, fmt.Errorf("session: sql open: %w", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		f.db = db
		if cfg.TTL > 0 {
			f.startPruner()
		}
	default:
		return nil, fmt.Errorf("session: unknown backend %q", cfg.Backend)
	}
	zap.L().Debug("session backend ready",
		zap.String("backend", cfg.Backend), zap.Duration("ttl", cfg.TTL))
	return f, nil
}

func newScopeCache(capacity int, ttl time.Duration) *cache.LRU[string, *Memory] {
	if capacity < 1 {
		capacity = defaultMaxScopes
	}
	return cache.New[string, *Memory](capacity, ttl)
}

// Open returns the Store for scope.
func (f *Factory) Open(scope string) (Store, error) {
	switch f.backend {
	case "file":
		return NewFile(f.dir, scope)
	case "redis":
		return NewRedis(f.rdb, scope, f.ttl), nil
	case "sql":
		return NewSQL(f.db, scope), nil
	default:
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.mem.Get(scope)
		if !ok {
			m = NewMemory()
			f.mem.Add(scope, m)
		}
		return m, nil
	}
}

// Drop releases scope's memory store after a logout.  Other backends lose
// the scope with its last key.
func (f *Factory) Drop(scope string) {
	if f.backend == "memory" {
		f.mem.Remove(scope)
	}
}

// Backend names the configured backend.
func (f *Factory) Backend() string { return f.backend }

// TTL is how long a browser session lives.  Zero means until cleared.
func (f *Factory) TTL() time.Duration { return f.ttl }

// startPruner deletes stale SQL rows now and every pruneEvery until Close.
func (f *Factory) startPruner() {
	ctx, cancel := context.WithCancel(context.Background())
	f.stop, f.done = cancel, make(chan struct{})

	go func() {
		defer close(f.done)
		t := time.NewTicker(pruneEvery)
		defer t.Stop()
		for {
			n, err := PruneSQL(ctx, f.db, time.Now().Add(-f.ttl))
			switch {
			case err != nil && ctx.Err() == nil:
				zap.L().Warn("prune sessions", zap.Error(err))
			case n > 0:
				zap.L().Info("pruned sessions", zap.Int64("rows", n))
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}

// Close stops the pruner and releases backend connections.
func (f *Factory) Close() error {
	if f.stop != nil {
		f.stop()
		<-f.done
	}
	var result *multierror.Error
	if f.rdb != nil {
		if err := f.rdb.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if f.db != nil {
		if err := f.db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
