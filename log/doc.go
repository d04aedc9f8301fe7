// Package log provides the leveled logging interface used by the contact
// crawler.
//
// Components log through the package-level functions, which forward to a
// swappable default logger. Two implementations ship with the package: a
// DefaultLogger backed by the standard library and a GologLogger wrapping
// github.com/kataras/golog for colored terminal output. The CLI installs
// the golog backend at startup; tests usually install NewCustomLogger with
// a buffer to assert on emitted lines, or NoOpLogger to silence output.
//
// # Log Levels
//
// Five levels are supported, in order of increasing severity:
//
//   - LogLevelDebug: conversation transcripts and cache activity
//   - LogLevelInfo: discovered contacts, token usage, run progress
//   - LogLevelWarn: contacts without a detail subpage, empty results
//   - LogLevelError: failed sessions and page fetches
//   - LogLevelNone: disables all logging output
//
// # Example
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	log.SetDefaultLogger(logger)
//
//	log.Info("Rufe %s auf.", url)
//	log.Warn("Für den Kontakt %s wurde keine Unterseite gefunden.", name)
//
// DefaultLogger and GologLogger are safe for concurrent use; discovery and
// enrichment sessions running in parallel share the package-level logger.
package log
