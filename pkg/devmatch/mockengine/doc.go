// Package mockengine provides an in-memory devmatch.API for tests and
// examples. It classifies agents by prefix rules, honors the property
// filter and the negative-length value protocol, and records lifecycle
// events (loads, unloads, live worksets, double frees) so tests can assert
// the wrapper's resource guarantees without the native library.
//
// Install it before the first Open:
//
//	eng := mockengine.New()
//	if err := devmatch.SetAPI(eng); err != nil { ... }
package mockengine
