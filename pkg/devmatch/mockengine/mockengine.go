package mockengine

import (
	"strings"
	"sync"

	"github.com/detectlab/devmatch-go/pkg/devmatch"
)

// Device is one classification rule: an agent prefix and the property
// values reported for agents (or header values) matching it.
type Device struct {
	AgentPrefix string
	Values      map[string]string
}

type matchState struct {
	input      string
	device     *Device
	matchedLen int
}

// Engine is a deterministic in-memory implementation of devmatch.API.
// It classifies by prefix rules and tracks every lifecycle transition so
// tests can assert exactly-once unload, zero live matches at teardown, and
// the absence of double frees.
type Engine struct {
	mu sync.Mutex

	properties []string
	headers    []string
	devices    []Device
	defaults   map[string]string
	loadStatus devmatch.Status

	loaded      bool
	path        string
	filter      string
	active      []string
	matches     map[devmatch.MatchRef]*matchState
	nextRef     uintptr
	loadCount   int
	unloadCount int

	doubleFrees         int
	unloadedWithMatches bool
}

// New returns an engine pre-seeded with a small device table: an iPhone
// rule, a desktop rule, and an opaque "UA-X" test rule. Header names are
// deliberately unsorted so the wrapper's sorting is observable.
func New() *Engine {
	return &Engine{
		properties: []string{"IsMobile", "BrowserName", "PlatformName", "HardwareModel"},
		headers:    []string{"User-Agent", "Device-Stock-UA", "X-OperaMini-Phone-UA"},
		devices: []Device{
			{
				AgentPrefix: "Mozilla/5.0 (iPhone",
				Values: map[string]string{
					"IsMobile":      "True",
					"BrowserName":   "Mobile Safari",
					"PlatformName":  "iOS",
					"HardwareModel": "iPhone",
				},
			},
			{
				AgentPrefix: "Mozilla/5.0",
				Values: map[string]string{
					"IsMobile":      "False",
					"BrowserName":   "Firefox",
					"PlatformName":  "Desktop",
					"HardwareModel": "Generic Desktop",
				},
			},
			{
				AgentPrefix: "UA-X",
				Values: map[string]string{
					"IsMobile":     "True",
					"BrowserName":  "TestBrowser",
					"PlatformName": "TestOS",
				},
			},
		},
		defaults: map[string]string{"IsMobile": "False"},
		matches:  make(map[devmatch.MatchRef]*matchState),
	}
}

// SetLoadStatus makes the next Load fail with the given status.
func (e *Engine) SetLoadStatus(s devmatch.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadStatus = s
}

// AddDevice appends a classification rule. Earlier rules win.
func (e *Engine) AddDevice(d Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.devices = append(e.devices, d)
}

// SetProperties replaces the engine's full property set.
func (e *Engine) SetProperties(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.properties = names
}

// Load implements devmatch.API.
func (e *Engine) Load(path, properties string) devmatch.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loadStatus != devmatch.StatusSuccess {
		return e.loadStatus
	}

	e.active = e.active[:0]
	if properties == "" {
		e.active = append(e.active, e.properties...)
	} else {
		requested := make(map[string]bool)
		for _, name := range strings.Split(properties, ",") {
			requested[strings.TrimSpace(name)] = true
		}
		for _, name := range e.properties {
			if requested[name] {
				e.active = append(e.active, name)
			}
		}
	}

	e.loaded = true
	e.path = path
	e.filter = properties
	e.loadCount++
	return devmatch.StatusSuccess
}

// Unload implements devmatch.API. Unloading with live matches is recorded
// so lifecycle tests can detect a broken drain barrier.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.matches) > 0 {
		e.unloadedWithMatches = true
	}
	e.loaded = false
	e.unloadCount++
}

// PropertyName implements devmatch.API.
func (e *Engine) PropertyName(index int, buf []byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded || index < 0 || index >= len(e.active) {
		return 0
	}
	return copy(buf, e.active[index])
}

// HTTPHeaderName implements devmatch.API.
func (e *Engine) HTTPHeaderName(index int, buf []byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded || index < 0 || index >= len(e.headers) {
		return 0
	}
	return copy(buf, e.headers[index])
}

// PropertyIndex implements devmatch.API.
func (e *Engine) PropertyIndex(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, n := range e.active {
		if n == name {
			return i
		}
	}
	return -1
}

// CreateMatch implements devmatch.API.
func (e *Engine) CreateMatch(input string) devmatch.MatchRef {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return 0
	}

	st := &matchState{input: input}
	for i := range e.devices {
		d := &e.devices[i]
		if matched, n := matchInput(input, d.AgentPrefix); matched {
			st.device = d
			st.matchedLen = n
			break
		}
	}

	e.nextRef++
	ref := devmatch.MatchRef(e.nextRef)
	e.matches[ref] = st
	return ref
}

// matchInput applies a prefix rule to a raw agent or to each value of a
// header-formatted input, returning the matched prefix length.
func matchInput(input, prefix string) (bool, int) {
	if strings.HasPrefix(input, prefix) {
		return true, len(prefix)
	}
	for _, line := range strings.Split(input, "\r\n") {
		_, value, ok := strings.Cut(line, ": ")
		if ok && strings.HasPrefix(value, prefix) {
			return true, len(prefix)
		}
	}
	return false, 0
}

// FreeMatch implements devmatch.API.
func (e *Engine) FreeMatch(ref devmatch.MatchRef) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.matches[ref]; !ok {
		e.doubleFrees++
		return
	}
	delete(e.matches, ref)
}

// MatchedAgentLength implements devmatch.API.
func (e *Engine) MatchedAgentLength(ref devmatch.MatchRef) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.matches[ref]
	if !ok {
		return 0
	}
	return st.matchedLen
}

// PropertyValue implements devmatch.API, including the negative-length
// protocol: values longer than buf report -len(value) without writing.
func (e *Engine) PropertyValue(ref devmatch.MatchRef, index int, buf []byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.matches[ref]
	if !ok || index < 0 || index >= len(e.active) {
		return 0
	}

	name := e.active[index]
	var value string
	if st.device != nil {
		value = st.device.Values[name]
	}
	if value == "" {
		value = e.defaults[name]
	}
	if value == "" {
		value = "Unknown"
	}

	if len(value) > len(buf) {
		return -len(value)
	}
	return copy(buf, value)
}

// Loaded reports whether a data file is currently loaded.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// LiveMatches reports the number of allocated, unfreed match worksets.
func (e *Engine) LiveMatches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.matches)
}

// LoadCount reports how many times Load succeeded.
func (e *Engine) LoadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadCount
}

// UnloadCount reports how many times Unload was called.
func (e *Engine) UnloadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unloadCount
}

// DoubleFrees reports FreeMatch calls for refs that were not live.
func (e *Engine) DoubleFrees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doubleFrees
}

// UnloadedWithLiveMatches reports whether any Unload happened while match
// worksets were still allocated. Always false when the drain barrier works.
func (e *Engine) UnloadedWithLiveMatches() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unloadedWithMatches
}

// LastPath reports the path passed to the most recent Load.
func (e *Engine) LastPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// LastFilter reports the property filter passed to the most recent Load.
func (e *Engine) LastFilter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

var _ devmatch.API = (*Engine)(nil)
