package devmatch

import "sync"

// shutdownBarrier gates engine teardown on outstanding match sessions. Every
// live session holds one entry; release on the last Engine handle blocks in
// waitDrained until the count returns to zero.
//
// The drained signal is a manual-reset channel: replaced when the count
// leaves zero, closed when it returns. Both transitions happen under the
// barrier's own mutex, so a session entering concurrently with a drain
// always either re-arms the signal before the waiter reads it or is waited
// for. The barrier starts drained.
type shutdownBarrier struct {
	mu      sync.Mutex
	count   int64
	drained chan struct{} // closed while count == 0
}

func newShutdownBarrier() *shutdownBarrier {
	b := &shutdownBarrier{drained: make(chan struct{})}
	close(b.drained)
	return b
}

// enter registers one outstanding session.
func (b *shutdownBarrier) enter() {
	b.mu.Lock()
	b.count++
	if b.count == 1 {
		b.drained = make(chan struct{})
	}
	b.mu.Unlock()
}

// exit releases one outstanding session. The count never goes negative;
// an unpaired exit is a bug in this package, not a caller error.
func (b *shutdownBarrier) exit() {
	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		panic("devmatch: barrier exit without matching enter")
	}
	b.count--
	if b.count == 0 {
		close(b.drained)
	}
	b.mu.Unlock()
}

// waitDrained blocks until no sessions are outstanding. Returns immediately
// when the count is already zero. Must not be called while holding any lock
// a session release path needs.
func (b *shutdownBarrier) waitDrained() {
	b.mu.Lock()
	ch := b.drained
	b.mu.Unlock()
	<-ch
}

// outstanding reports the current session count.
func (b *shutdownBarrier) outstanding() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
