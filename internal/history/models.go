package history

import "time"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Issue is a stored per-record problem.
type Issue struct {
	Row     int
	PID     string
	Stage   string
	Field   string
	Value   string
	Kind    string
	Message string
}

// Run is one stored classify run.
type Run struct {
	ID          string
	Input       string
	Output      string
	Started     time.Time
	Finished    time.Time
	Records     int
	Unlabeled   int
	IssueCount  int
	RulesDigest string
	Counts      map[string]int
	Issues      []Issue
}
