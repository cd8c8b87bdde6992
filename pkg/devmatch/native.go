package devmatch

import "github.com/detectlab/devmatch-go/internal/bindings"

// Status is the load status reported by the native engine.
type Status = bindings.Status

// MatchRef is an opaque reference to a native match workset.
type MatchRef = bindings.MatchRef

// Status codes re-exported from the bindings layer.
const (
	StatusSuccess            = bindings.StatusSuccess
	StatusInsufficientMemory = bindings.StatusInsufficientMemory
	StatusCorruptData        = bindings.StatusCorruptData
	StatusIncorrectVersion   = bindings.StatusIncorrectVersion
	StatusFileNotFound       = bindings.StatusFileNotFound
	StatusNotBuilt           = bindings.StatusNotBuilt
)

// API is the low-level surface of the native matcher. The registry talks to
// the engine exclusively through this interface, which is what keeps the
// whole lifecycle testable without the native library; mockengine provides
// an in-memory implementation.
//
// Implementations must tolerate concurrent CreateMatch/FreeMatch/value calls
// once loaded. Load and Unload are serialized by the registry.
type API interface {
	// Load initializes the engine from the data file at path. properties is
	// a comma-separated filter restricting the loaded property set; empty
	// means all.
	Load(path, properties string) Status

	// Unload destroys the engine state. Called only after every MatchRef
	// has been freed.
	Unload()

	// PropertyName writes the name of the property at index into buf and
	// returns the byte count; non-positive means no entry at that index.
	PropertyName(index int, buf []byte) int

	// HTTPHeaderName is PropertyName for the engine's relevant HTTP
	// header list.
	HTTPHeaderName(index int, buf []byte) int

	// PropertyIndex returns the engine-assigned index for name, negative
	// if unknown.
	PropertyIndex(name string) int

	// CreateMatch classifies input and returns a workset reference, zero
	// on failure.
	CreateMatch(input string) MatchRef

	// FreeMatch releases a workset exactly once.
	FreeMatch(ref MatchRef)

	// MatchedAgentLength reports how many leading bytes of the submitted
	// agent the engine matched.
	MatchedAgentLength(ref MatchRef) int

	// PropertyValue writes the value of property index for ref into buf
	// and returns the byte count. A negative return encodes the required
	// buffer size; callers grow to -n and retry once.
	PropertyValue(ref MatchRef, index int, buf []byte) int
}

// nativeAPI is the default API backed by the cgo bindings (or their
// non-cgo stubs).
type nativeAPI struct{}

func (nativeAPI) Load(path, properties string) Status { return bindings.Init(path, properties) }
func (nativeAPI) Unload()                             { bindings.Destroy() }
func (nativeAPI) PropertyName(i int, buf []byte) int  { return bindings.PropertyName(i, buf) }
func (nativeAPI) HTTPHeaderName(i int, buf []byte) int {
	return bindings.HTTPHeaderName(i, buf)
}
func (nativeAPI) PropertyIndex(name string) int       { return bindings.PropertyIndex(name) }
func (nativeAPI) CreateMatch(input string) MatchRef   { return bindings.CreateMatch(input) }
func (nativeAPI) FreeMatch(ref MatchRef)              { bindings.FreeMatch(ref) }
func (nativeAPI) MatchedAgentLength(ref MatchRef) int { return bindings.MatchedAgentLength(ref) }
func (nativeAPI) PropertyValue(ref MatchRef, index int, buf []byte) int {
	return bindings.PropertyValue(ref, index, buf)
}

// SetAPI replaces the engine implementation behind Open. It exists for tests
// and alternative engine builds and fails with ErrEngineActive if an engine
// is currently loaded or any handle is still open. Passing nil restores the
// native bindings.
func SetAPI(api API) error {
	return defaultRegistry.setAPI(api)
}
