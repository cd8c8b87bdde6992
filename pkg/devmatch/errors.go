package devmatch

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound indicates the data file path did not exist at Open
	// time. The returned error wraps this sentinel together with the path.
	ErrFileNotFound = errors.New("devmatch: data file not found")

	// ErrEngineClosed indicates an operation on an Engine handle that has
	// already been closed.
	ErrEngineClosed = errors.New("devmatch: engine handle closed")

	// ErrSessionReleased indicates a property or agent query on a
	// MatchSession after Release. This is a caller defect: the underlying
	// allocation is gone and no stale data is ever returned.
	ErrSessionReleased = errors.New("devmatch: match session released")

	// ErrMatchFailed indicates the engine's match call returned no workset.
	ErrMatchFailed = errors.New("devmatch: engine match call failed")

	// ErrEngineActive indicates an attempt to replace the backing engine
	// implementation while an engine is loaded.
	ErrEngineActive = errors.New("devmatch: engine is loaded")
)

// SourceConflictError is returned by Open when a different data source is
// already loaded. Only one source may be active per process; the conflicting
// Open leaves the loaded engine untouched.
type SourceConflictError struct {
	LoadedPath    string
	RequestedPath string
}

func (e *SourceConflictError) Error() string {
	return fmt.Sprintf("devmatch: engine already loaded from %q, cannot open %q",
		e.LoadedPath, e.RequestedPath)
}

// InitError is returned by Open when the native engine rejects the load.
// The status code is surfaced as-is, not interpreted.
type InitError struct {
	Status Status
}

func (e *InitError) Error() string {
	return fmt.Sprintf("devmatch: engine initialization failed: %s (status %d)",
		e.Status, int32(e.Status))
}
