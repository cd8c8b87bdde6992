// Package internalcheck holds repository policy tests.
//
// The native bindings layer is where undefined behavior lives: any call into
// internal/bindings that bypasses the registry's refcounting and drain
// barrier can crash the process. The tests here statically enforce that only
// pkg/devmatch reaches the bindings, so the lifecycle guarantees cannot be
// silently circumvented elsewhere in the module.
//
// This package is not intended for external use.
package internalcheck
