// Package history persists classify runs in SQLite.
//
// Each run stores its identifier, timing, input and output paths, the number
// of records per label, and every per-record issue collected along the way.
// The CLI's history command lists runs and shows a run's issues from here.
package history
