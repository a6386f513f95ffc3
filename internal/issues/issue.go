package issues

import (
	"fmt"
	"strings"
)

// Issue describes a problem confined to a single record. Row is the zero-based
// data row index in the source table, or -1 when the issue is not tied to a row.
type Issue struct {
	Row   int
	PID   string
	Stage string
	Field string
	Value string
	Err   error
}

func (i Issue) Error() string {
	var b strings.Builder
	if i.Stage != "" {
		b.WriteString(i.Stage)
		b.WriteString(": ")
	}
	if i.Row >= 0 {
		fmt.Fprintf(&b, "row %d", i.Row)
	} else {
		b.WriteString("table")
	}
	if i.PID != "" {
		fmt.Fprintf(&b, " (pid %s)", i.PID)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, " %s=%q", i.Field, i.Value)
	}
	if i.Err != nil {
		b.WriteString(": ")
		b.WriteString(i.Err.Error())
	}
	return b.String()
}

func (i Issue) Unwrap() error { return i.Err }

// List accumulates issues in the order they were observed.
type List []Issue

// Add appends an issue.
func (l *List) Add(issue Issue) {
	*l = append(*l, issue)
}

// Extend appends every issue in other.
func (l *List) Extend(other List) {
	*l = append(*l, other...)
}

// Len reports the number of collected issues.
func (l List) Len() int { return len(l) }

// ByStage returns the issues recorded for the given stage.
func (l List) ByStage(stage string) List {
	var out List
	for _, issue := range l {
		if issue.Stage == stage {
			out = append(out, issue)
		}
	}
	return out
}
