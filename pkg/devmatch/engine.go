package devmatch

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
)

// Engine is a reference-counted handle to the process-wide native engine.
// Handles for the same data file share one loaded engine; the engine is
// unloaded when the last handle closes and all match sessions are released.
//
// All methods are safe for concurrent use.
type Engine struct {
	reg    *registry
	state  *loadState
	closed atomic.Bool
}

// Open acquires an Engine handle for the data file at path. The first Open
// loads the native engine; later Opens must name the same path and only bump
// the reference count. properties restricts the loaded property set; empty
// means all properties.
//
// Errors: ErrFileNotFound if path does not exist, *SourceConflictError if a
// different source is loaded, *InitError if the native engine rejects the
// load.
func Open(path string, properties ...string) (*Engine, error) {
	return open(defaultRegistry, path, properties)
}

func open(reg *registry, path string, properties []string) (*Engine, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("devmatch: stat data file: %w", err)
	}

	src := sourceDescriptor{path: path, propertyFilter: strings.Join(properties, ",")}
	st, err := reg.acquire(src)
	if err != nil {
		return nil, err
	}

	e := &Engine{reg: reg, state: st}
	runtime.SetFinalizer(e, func(e *Engine) { _ = e.Close() })
	return e, nil
}

// Close releases this handle. Idempotent. Closing the last handle blocks
// until every outstanding MatchSession has been released, then unloads the
// native engine.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	runtime.SetFinalizer(e, nil)
	e.reg.release()
	return nil
}

// AvailableProperties returns the loaded property names in engine index
// order. Nil after Close.
func (e *Engine) AvailableProperties() []string {
	if e == nil || e.closed.Load() {
		return nil
	}
	return e.state.catalog.propertyNames()
}

// HTTPHeaders returns the HTTP header names the engine considers relevant,
// sorted ascending. Nil after Close.
func (e *Engine) HTTPHeaders() []string {
	if e == nil || e.closed.Load() {
		return nil
	}
	out := make([]string, len(e.state.headers))
	copy(out, e.state.headers)
	return out
}

// MatchAgent classifies a raw User-Agent string. The returned session holds
// engine-owned memory and must be released by the caller.
func (e *Engine) MatchAgent(agent string) (*MatchSession, error) {
	return newMatchSession(e, agent, true)
}

// MatchHeaders classifies a request by its headers. Values are rendered as
// "Name: Value" lines in header-name order, one line per value, before being
// handed to the engine.
func (e *Engine) MatchHeaders(headers map[string][]string) (*MatchSession, error) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, value := range headers[name] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\r\n")
		}
	}
	return newMatchSession(e, b.String(), false)
}
