// Package logging holds the zap logger shared by the devmatch packages.
//
// The library is silent by default. Applications that want visibility into
// engine load/unload events and leaked-session reclamation install their own
// logger:
//
//	logger, _ := zap.NewProduction()
//	logging.SetLogger(logger)
package logging
