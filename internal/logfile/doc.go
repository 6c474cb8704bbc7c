// Package logfile loads JSON-lines logs and derives the views logview shows.
//
// # Overview
//
// A log file holds one JSON object per line. Each object must carry:
//
//   - asctime: timestamp, either text (sorted lexically) or a number
//   - levelname: DEBUG, INFO, WARNING or ERROR (case sensitive)
//   - process: the run key, any JSON value, compared as text
//   - message: free text
//
// Any other keys become extra columns in the order they are first seen.
// Numbers are normalized on load: integers become int64 and anything else
// float64, so 1.0 shows as 1 and 2.50 as 2.5. Exports write them as numeric
// cells. Nested objects and arrays are kept as compact JSON text.
// Loading is strict: a single malformed line fails the whole file.
//
// # Record Sets
//
// Load returns a RecordSet sorted by asctime, most recent first. Apart from
// the per-record selection flag the set never changes after load; reloading
// a file produces a new set.
//
//	rs, err := logfile.Load("app.log.json")
//	if errors.Is(err, logfile.ErrNotFound) {
//		// keep the previous set
//	}
//
// # Runs and Selection
//
// Runs groups records by process. Run keys are the text form of the value,
// so "process": 1 and "process": "1" belong to the same run; the key is what
// users type for --run and what FilterRuns accepts. The run with the newest
// asctime is marked MostRecent; ties go to the run met first in the set.
//
// FilterRuns recomputes the selection flag of every record from a set of run
// keys. An empty key set leaves nothing selected.
//
// # Views
//
// Formatted returns the selected records as rows of cells. The levelname cell
// carries a Style{Bold, Color} hint; rendering is left to the caller.
//
// Export writes selected records, minus excluded levels and columns, to an
// xlsx workbook. When nothing survives it returns false and writes nothing.
package logfile
