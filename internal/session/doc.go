// Package session holds the log file logview has open.
//
// # Overview
//
// The record set in logfile is single-owner and unsynchronised. Session is
// the host that owns it: the UI loads and exports from tea commands running
// off the update loop, so every access goes through a sync.RWMutex.
//
// # Load Semantics
//
// LoadLog parses the new file before taking the lock. A missing or malformed
// file returns the error and leaves the previously open set untouched:
//
//	if err := sess.LoadLog(path); err != nil {
//		// the old view is still valid
//	}
//
// Reload re-reads the open path and resets the selection to every record.
//
// # Exports
//
// ExportLog returns (false, nil) when the filters leave nothing to write.
// Callers must tell this apart from an error, which wraps logfile.ErrIO.
package session
