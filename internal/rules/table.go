package rules

import (
	"fmt"
	"strings"

	"mrimark/internal/issues"
)

// Entry is one label/pattern pair as written in configuration.
type Entry struct {
	Label   string `toml:"label" yaml:"label"`
	Pattern string `toml:"pattern" yaml:"pattern"`
}

// Match is the winning entry for a piece of text.
type Match struct {
	Label    string
	Pattern  string
	Priority int
}

type compiledEntry struct {
	entry   Entry
	pattern Pattern
}

// Table is an ordered, compiled set of entries. Priority equals position:
// the last entry that matches a text decides its label.
type Table struct {
	entries []compiledEntry
}

// NewTable compiles entries in order. A label that appears twice keeps the
// position of its first occurrence and the pattern of its last one.
func NewTable(entries []Entry) (Table, error) {
	return Table{}.Merge(entries...)
}

// Merge returns a new table with entries applied on top of t. An entry whose
// label already exists replaces that entry's pattern in place; new labels are
// appended and therefore outrank every existing entry.
func (t Table) Merge(entries ...Entry) (Table, error) {
	out := Table{entries: make([]compiledEntry, len(t.entries), len(t.entries)+len(entries))}
	copy(out.entries, t.entries)
	for _, e := range entries {
		label := strings.TrimSpace(e.Label)
		if label == "" {
			return Table{}, issues.Wrap(issues.ErrConfiguration, "rules", "merge", fmt.Sprintf("entry with pattern %q has no label", e.Pattern), nil)
		}
		if strings.TrimSpace(e.Pattern) == "" {
			return Table{}, issues.Wrap(issues.ErrConfiguration, "rules", "merge", fmt.Sprintf("label %q has an empty pattern", label), nil)
		}
		p, err := CompilePattern(e.Pattern)
		if err != nil {
			return Table{}, fmt.Errorf("label %q: %w", label, err)
		}
		ce := compiledEntry{entry: Entry{Label: label, Pattern: e.Pattern}, pattern: p}
		if idx := out.index(label); idx >= 0 {
			out.entries[idx] = ce
			continue
		}
		out.entries = append(out.entries, ce)
	}
	return out, nil
}

func (t Table) index(label string) int {
	for i, e := range t.entries {
		if e.entry.Label == label {
			return i
		}
	}
	return -1
}

// Len reports the number of entries.
func (t Table) Len() int { return len(t.entries) }

// Entries returns the entries in table order (lowest priority first).
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.entry
	}
	return out
}

// Labels returns the configured labels in table order.
func (t Table) Labels() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.entry.Label
	}
	return out
}

// Match returns the highest-priority entry whose pattern occurs in text.
func (t Table) Match(text string) (Match, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.pattern.MatchString(text) {
			return Match{Label: e.entry.Label, Pattern: e.entry.Pattern, Priority: i}, true
		}
	}
	return Match{}, false
}

// Matches returns every entry whose pattern occurs in text, highest priority
// first.
func (t Table) Matches(text string) []Match {
	var out []Match
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.pattern.MatchString(text) {
			out = append(out, Match{Label: e.entry.Label, Pattern: e.entry.Pattern, Priority: i})
		}
	}
	return out
}
