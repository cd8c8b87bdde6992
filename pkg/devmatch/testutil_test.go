package devmatch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeAPI is a minimal in-package API for lifecycle tests. The richer
// mockengine package cannot be used here without an import cycle.
type fakeAPI struct {
	mu         sync.Mutex
	loadStatus Status
	props      []string
	headers    []string
	values     map[string]string

	loaded      bool
	loadCount   int
	unloadCount int
	matches     map[MatchRef]string
	nextRef     uintptr
	freeCalls   int
	doubleFrees int
	valueCalls  int
	lastInput   string
	matchedLen  int
	failMatch   bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		props:   []string{"IsMobile", "BrowserName"},
		headers: []string{"User-Agent", "Device-Stock-UA"},
		values: map[string]string{
			"IsMobile":    "True",
			"BrowserName": "TestBrowser",
		},
		matches:    make(map[MatchRef]string),
		matchedLen: -1, // default: full input
	}
}

func (f *fakeAPI) Load(path, properties string) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadStatus != StatusSuccess {
		return f.loadStatus
	}
	f.loaded = true
	f.loadCount++
	return StatusSuccess
}

func (f *fakeAPI) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = false
	f.unloadCount++
}

func (f *fakeAPI) PropertyName(index int, buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.props) {
		return 0
	}
	return copy(buf, f.props[index])
}

func (f *fakeAPI) HTTPHeaderName(index int, buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.headers) {
		return 0
	}
	return copy(buf, f.headers[index])
}

func (f *fakeAPI) PropertyIndex(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.props {
		if n == name {
			return i
		}
	}
	return -1
}

func (f *fakeAPI) CreateMatch(input string) MatchRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded || f.failMatch {
		return 0
	}
	f.lastInput = input
	f.nextRef++
	ref := MatchRef(f.nextRef)
	f.matches[ref] = input
	return ref
}

func (f *fakeAPI) FreeMatch(ref MatchRef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.matches[ref]; !ok {
		f.doubleFrees++
		return
	}
	delete(f.matches, ref)
	f.freeCalls++
}

func (f *fakeAPI) MatchedAgentLength(ref MatchRef) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matchedLen >= 0 {
		return f.matchedLen
	}
	return len(f.matches[ref])
}

func (f *fakeAPI) PropertyValue(ref MatchRef, index int, buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valueCalls++
	if _, ok := f.matches[ref]; !ok || index < 0 || index >= len(f.props) {
		return 0
	}
	value := f.values[f.props[index]]
	if len(value) > len(buf) {
		return -len(value)
	}
	return copy(buf, value)
}

func (f *fakeAPI) setValue(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
}

func (f *fakeAPI) stats() (loads, unloads, frees, doubles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCount, f.unloadCount, f.freeCalls, f.doubleFrees
}

// tempDataFile creates an empty data file so Open's existence check passes.
func tempDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.dat")
	if err := os.WriteFile(path, []byte("fake"), 0o600); err != nil {
		t.Fatalf("write temp data file: %v", err)
	}
	return path
}

// openTestEngine wires a fresh registry around f and opens a handle on it.
func openTestEngine(t *testing.T, f *fakeAPI) (*Engine, *registry) {
	t.Helper()
	reg := newRegistry(f)
	e, err := open(reg, tempDataFile(t), nil)
	if err != nil {
		t.Fatalf("open test engine: %v", err)
	}
	return e, reg
}
