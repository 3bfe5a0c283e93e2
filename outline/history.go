package outline

import "github.com/hazyhaar/domoutline/outline/internal/history"

// Recorder stores rendered outlines in SQLite. See WithRecorder.
type Recorder = history.Recorder

// Record is one stored render.
type Record = history.Record

// ErrRecordNotFound is returned by Recorder.Get for unknown ids.
var ErrRecordNotFound = history.ErrNotFound

// OpenRecorder opens (creating if needed) the history database at path.
// ":memory:" keeps it in process.
func OpenRecorder(path string) (*Recorder, error) {
	return history.Open(path)
}
