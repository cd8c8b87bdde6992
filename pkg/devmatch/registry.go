package devmatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/detectlab/devmatch-go/pkg/devmatch/logging"
)

// sourceDescriptor identifies the data an engine was loaded from. Immutable
// once loaded; subsequent acquisitions must match it by path exactly.
type sourceDescriptor struct {
	path           string
	propertyFilter string
}

// loadState is the read-only product of one successful engine load. Engine
// handles hold a pointer to it, so catalog and header lookups never touch
// the registry lock, and a state snapshot stays valid for the handle's
// lifetime even across a later unload.
type loadState struct {
	source  sourceDescriptor
	catalog *propertyCatalog
	headers []string
}

// registry is the process-wide owner of the single native engine. It
// serializes load/unload/refcount transitions under one mutex, held only
// for the transition itself, never across the engine's match path and never
// while blocking on the drain barrier.
type registry struct {
	mu      sync.Mutex
	api     API
	refs    uint64
	state   *loadState // non-nil iff an engine is loaded
	barrier *shutdownBarrier
}

// defaultRegistry backs Open. One per process, mirroring the native
// engine's own global state.
var defaultRegistry = newRegistry(nativeAPI{})

func newRegistry(api API) *registry {
	return &registry{api: api, barrier: newShutdownBarrier()}
}

// acquire loads the engine on first use and bumps the refcount on every
// success. A failed load mutates nothing; a path mismatch against a loaded
// engine fails without touching existing state.
func (r *registry) acquire(src sourceDescriptor) (*loadState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != nil {
		if src.path != r.state.source.path {
			return nil, &SourceConflictError{
				LoadedPath:    r.state.source.path,
				RequestedPath: src.path,
			}
		}
		r.refs++
		return r.state, nil
	}

	if status := r.api.Load(src.path, src.propertyFilter); status != StatusSuccess {
		return nil, &InitError{Status: status}
	}

	st := &loadState{
		source:  src,
		catalog: buildCatalog(r.api),
		headers: headerNames(r.api),
	}
	r.state = st
	r.refs = 1

	logging.Logger().Info("engine loaded",
		zap.String("path", src.path),
		zap.String("property_filter", src.propertyFilter),
		zap.Int("properties", len(st.catalog.names)),
		zap.Int("http_headers", len(st.headers)))
	return st, nil
}

// release drops one reference. When the count reaches zero it waits, outside
// the registry lock, for all outstanding match sessions to drain, then
// unloads the engine. If another acquire slipped in while draining, the
// teardown is skipped and the engine stays loaded for the new holder.
func (r *registry) release() {
	r.mu.Lock()
	if r.refs == 0 {
		r.mu.Unlock()
		return
	}
	r.refs--
	last := r.refs == 0
	r.mu.Unlock()

	if !last {
		return
	}

	// Sessions exit the barrier without the registry lock, so blocking here
	// cannot deadlock against them.
	r.barrier.waitDrained()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs != 0 || r.state == nil {
		return
	}

	path := r.state.source.path
	r.api.Unload()
	r.state = nil

	logging.Logger().Info("engine unloaded", zap.String("path", path))
}

// setAPI swaps the engine implementation. Refused while loaded. A nil api
// restores the native bindings.
func (r *registry) setAPI(api API) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != nil || r.refs != 0 {
		return ErrEngineActive
	}
	if api == nil {
		api = nativeAPI{}
	}
	r.api = api
	return nil
}
