// Package app provides the orchestration layer for the logview application.
//
// # Overview
//
// This package wires together the diagnostic logger, the settings store, the
// session holding the open log file, change detection, and the UI. It is the
// composition root where all dependencies are initialized and connected.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Open the zap logger writing JSON lines to ~/.local/state/logview/logview.log
//  2. Load settings from ~/.config/logview/settings.toml, filling defaults
//  3. Create the shared session.Session for the UI
//  4. Start the fsnotify watcher and the stat poller
//  5. Start the TUI and block until the user exits or the context cancels
//
// # Components
//
//   - app.go: Main Run function
//   - poller.go: Background goroutine that stats the open file periodically
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> logger.New()     Diagnostic log file
//	       ├─────> settings.Load()  TOML settings with defaults
//	       ├─────> session.New()    Shared record set holder
//	       ├─────> watch.New()      fsnotify on the file's directory
//	       ├─────> StartPoller()    Stat fallback
//	       └─────> ui.Run()         Start TUI (blocks)
//
//	Change detection:
//	┌─────────────────────────────────────────┐
//	│ watcher.Run() / StartPoller()           │
//	│  └─> watcher.Changes()                  │
//	│      └─> UI marks the file as changed   │
//	│          and offers a reload (r)        │
//	└─────────────────────────────────────────┘
//
// Neither path reloads on its own. Reloading resets the run selection, so it
// only happens when the user asks.
//
// # Polling Behavior
//
// The poller compares size and mtime of the open file at a configurable
// interval (default: 2 seconds). When stat fails, for example while a file is
// being rotated, the interval doubles per failure up to 30 seconds.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Log file cannot be created
//   - Settings file is unreadable or not valid TOML
//
// Recoverable errors (logged, the UI keeps running):
//   - fsnotify unavailable
//   - Stat failures during polling
//   - Log files that fail to load or export
package app
