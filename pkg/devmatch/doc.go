// Package devmatch exposes a Go API over the native device-matching engine.
//
// The native engine is a process-wide singleton: exactly one data source may
// be loaded at a time, and every match allocates engine-owned memory that
// must be freed before the engine can be torn down. This package makes that
// constraint safe at the API boundary. Open returns a reference-counted
// Engine handle; the underlying native engine is loaded on the first Open
// and unloaded when the last handle is closed, after all outstanding match
// sessions have been released.
//
// Engines and MatchSessions carry finalizers so leaked handles are
// eventually reclaimed, but timely teardown depends on callers releasing
// sessions and closing engines explicitly.
package devmatch
