package detection

import (
	"context"
	"fmt"
	"sync"
)

// Constructor builds an engine for one kind
type Constructor func(ctx context.Context, params Params) (Engine, error)

// Factory builds engines by kind. Kinds are registered once at startup.
type Factory struct {
	mu           sync.RWMutex
	constructors map[Kind]Constructor
	order        []Kind
}

func NewFactory() *Factory {
	return &Factory{constructors: make(map[Kind]Constructor)}
}

// Register adds or replaces the constructor for kind
func (f *Factory) Register(kind Kind, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.constructors[kind]; !ok {
		f.order = append(f.order, kind)
	}
	f.constructors[kind] = c
}

// Build constructs a new engine. Constructor errors are returned unchanged.
func (f *Factory) Build(ctx context.Context, kind Kind, params Params) (Engine, error) {
	f.mu.RLock()
	c, ok := f.constructors[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return c(ctx, params)
}

// Kinds lists registered kinds in registration order
func (f *Factory) Kinds() []Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Kind, len(f.order))
	copy(out, f.order)
	return out
}
