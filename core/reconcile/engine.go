package reconcile

import (
	"context"
	"sync"

	"rom-manager/core/catalog"
	"rom-manager/core/container"
	"rom-manager/core/library"
	"rom-manager/core/prompt"

	golock "github.com/viney-shih/go-lock"
	"go.uber.org/zap"
)

// Engine runs the check and import flows against one catalog and library.
type Engine struct {
	catalog  catalog.Catalog
	registry *container.Registry
	layout   *library.Layout
	resolver *Resolver
	mover    *Mover
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[int64]*golock.CASMutex
}

// NewEngine wires an engine. decider settles ambiguous matches during import.
func NewEngine(cat catalog.Catalog, registry *container.Registry, layout *library.Layout, decider prompt.Decider, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:  cat,
		registry: registry,
		layout:   layout,
		resolver: NewResolver(decider, logger),
		mover:    NewMover(layout, logger),
		logger:   logger,
		locks:    make(map[int64]*golock.CASMutex),
	}
}

// Layout returns the library layout the engine writes to.
func (e *Engine) Layout() *library.Layout {
	return e.layout
}

// lockSystem serializes work on one system. It fails when ctx ends first.
func (e *Engine) lockSystem(ctx context.Context, systemID int64) (func(), error) {
	e.mu.Lock()
	lock, ok := e.locks[systemID]
	if !ok {
		lock = golock.NewCASMutex()
		e.locks[systemID] = lock
	}
	e.mu.Unlock()

	if !lock.TryLockWithContext(ctx) {
		return nil, ctx.Err()
	}
	return lock.Unlock, nil
}
