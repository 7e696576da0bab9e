package nav

import (
	"context"

	"go.uber.org/zap"
)

// KeyLocation is the store key holding the last location of a CLI
// session.  It lives outside both session namespaces, so clearing them
// leaves it alone.
const KeyLocation = "hemo:location"

// kv is the slice of session.Store that Stored needs.
type kv interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Stored is a Memory whose location survives the process through a store.
type Stored struct {
	*Memory
	store kv
}

// Restore reads the saved location, or starts at def when none is saved.
func Restore(ctx context.Context, store kv, def string) (*Stored, error) {
	loc, ok, err := store.Get(ctx, KeyLocation)
	if err != nil {
		return nil, err
	}
	if !ok || loc == "" {
		loc = def
	}
	return &Stored{Memory: NewMemory(loc), store: store}, nil
}

// Navigate moves and saves.  A failed save is logged; the in-memory
// location still changes.
func (s *Stored) Navigate(path string) {
	before := s.Memory.Count()
	s.Memory.Navigate(path)
	if s.Memory.Count() == before {
		return
	}
	if err := s.store.Set(context.Background(), KeyLocation, path); err != nil {
		zap.L().Warn("save location", zap.String("path", path), zap.Error(err))
	}
}
