// Package issues defines the error markers and per-record issue collection
// shared by the classification pipeline and its file-handling collaborators.
//
// Errors that stop a run are tagged with one of the exported sentinel markers
// through Wrap so callers can branch with errors.Is. Problems that only affect
// a single record (an unparseable study date, a spacing value that is not a
// number) are captured as Issue values and collected into a List; they are
// reported alongside the results instead of aborting the pass.
package issues
