package devmatch

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/detectlab/devmatch-go/pkg/devmatch/logging"
)

// initialValueBuffer is the starting capacity for property value retrieval.
// Deliberately small: values that do not fit trigger the engine's
// negative-length resize protocol, which is exercised rather than avoided.
const initialValueBuffer = 32

// leakedSessions counts sessions reclaimed by the finalizer instead of an
// explicit Release. Leaks delay drain-based teardown indefinitely, so they
// are surfaced rather than silently absorbed.
var leakedSessions atomic.Uint64

// LeakedSessions reports how many match sessions were reclaimed by the
// finalizer fallback since process start.
func LeakedSessions() uint64 {
	return leakedSessions.Load()
}

// MatchSession wraps one engine match allocation. It is created live and
// transitions to released exactly once, via Release or the finalizer
// fallback; queries after release fail with ErrSessionReleased.
type MatchSession struct {
	engine   *Engine
	ref      MatchRef
	agent    string
	hasAgent bool
	released atomic.Bool
}

func newMatchSession(e *Engine, input string, hasAgent bool) (*MatchSession, error) {
	if e == nil || e.closed.Load() {
		return nil, ErrEngineClosed
	}

	// Enter the barrier before the engine call: once we are in, a concurrent
	// last-handle Close drains behind us instead of unloading under us. The
	// closed re-check after entering shuts the remaining window where Close
	// began before our entry.
	b := e.reg.barrier
	b.enter()
	if e.closed.Load() {
		b.exit()
		return nil, ErrEngineClosed
	}

	ref := e.reg.api.CreateMatch(input)
	if ref == 0 {
		// Never hold a barrier entry without a live allocation.
		b.exit()
		return nil, ErrMatchFailed
	}

	s := &MatchSession{engine: e, ref: ref, hasAgent: hasAgent}
	if hasAgent {
		s.agent = input
	}
	runtime.SetFinalizer(s, finalizeSession)
	return s, nil
}

// Property returns the engine's value for the named property. found is false
// for names the loaded catalog does not know; that is not an error. A value
// longer than the initial buffer is fetched with one resize-and-retry cycle
// per the engine's negative-length protocol.
func (s *MatchSession) Property(name string) (value string, found bool, err error) {
	if s == nil || s.released.Load() {
		return "", false, ErrSessionReleased
	}

	idx, ok := s.engine.state.catalog.lookup(name)
	if !ok {
		return "", false, nil
	}

	buf := make([]byte, initialValueBuffer)
	n := s.engine.reg.api.PropertyValue(s.ref, int(idx), buf)
	if n < 0 {
		buf = make([]byte, -n)
		n = s.engine.reg.api.PropertyValue(s.ref, int(idx), buf)
		if n < 0 {
			return "", false, fmt.Errorf("devmatch: property %q: engine still reports short buffer (%d) after resize", name, n)
		}
	}
	return string(buf[:n]), true, nil
}

// MatchedAgent returns the leading part of the submitted User-Agent the
// engine matched against. ok is false for header-based sessions, which have
// no single agent string.
func (s *MatchSession) MatchedAgent() (agent string, ok bool, err error) {
	if s == nil || s.released.Load() {
		return "", false, ErrSessionReleased
	}
	if !s.hasAgent {
		return "", false, nil
	}

	n := s.engine.reg.api.MatchedAgentLength(s.ref)
	if n < 0 {
		n = 0
	}
	if n > len(s.agent) {
		n = len(s.agent)
	}
	return s.agent[:n], true, nil
}

// Release frees the engine allocation and leaves the drain barrier.
// Idempotent: second and later calls are no-ops.
func (s *MatchSession) Release() {
	if s == nil {
		return
	}
	if !s.released.CompareAndSwap(false, true) {
		return
	}

	runtime.SetFinalizer(s, nil)
	s.engine.reg.api.FreeMatch(s.ref)
	s.ref = 0
	s.engine.reg.barrier.exit()
}

// finalizeSession is the best-effort fallback for sessions the caller never
// released. It performs the same cleanup as Release but its scheduling is
// non-deterministic, so it must never be the primary mechanism: a leaked
// session keeps engine teardown blocked until the GC happens to run.
func finalizeSession(s *MatchSession) {
	if s.released.Load() {
		return
	}
	total := leakedSessions.Add(1)
	logging.Logger().Warn("match session leaked; reclaimed by finalizer",
		zap.Uint64("total_leaked", total))
	s.Release()
}
