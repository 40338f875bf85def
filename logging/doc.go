// Package logging provides a minimal logging interface and adapters for nanocode.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, tools and the agent loop use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - With for attaching contextual fields (component, session_id)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	logger = logging.With(logger, "component", "router")
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
