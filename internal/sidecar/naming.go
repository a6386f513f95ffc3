package sidecar

import (
	"fmt"
	"regexp"
	"strings"

	"mrimark/internal/issues"
)

// Identity columns derived from a subject directory name.
const (
	ColumnPID   = "pid"
	ColumnPName = "pName"
	ColumnHPID  = "hpid"
)

// Identity is what a subject directory name says about its subject.
type Identity struct {
	PID   string
	PName string
	HPID  string
}

// Columns returns the identity as ordered column/value pairs. Empty parts
// are omitted.
func (id Identity) Columns() (names []string, values map[string]string) {
	values = make(map[string]string, 3)
	add := func(name, value string) {
		if value == "" {
			return
		}
		names = append(names, name)
		values[name] = value
	}
	add(ColumnHPID, id.HPID)
	add(ColumnPID, id.PID)
	add(ColumnPName, id.PName)
	return names, values
}

// Naming recognizes subject directories and splits their names.
type Naming struct {
	pattern   *regexp.Regexp
	splitChar string
}

// NewNaming compiles pattern. splitChar selects the split rule: "+" yields
// pid and pName, "-" yields hpid and pid, anything else takes the pattern
// match as pid and the trimmed remainder as pName.
func NewNaming(pattern, splitChar string) (Naming, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Naming{}, issues.Wrap(issues.ErrConfiguration, "sidecar", "subject pattern", fmt.Sprintf("%q does not compile", pattern), err)
	}
	return Naming{pattern: re, splitChar: splitChar}, nil
}

// Pattern returns the compiled subject pattern.
func (n Naming) Pattern() *regexp.Regexp { return n.pattern }

// Matches reports whether name starts with the subject pattern.
func (n Naming) Matches(name string) bool {
	loc := n.pattern.FindStringIndex(name)
	return loc != nil && loc[0] == 0
}

// Identify splits a matching subject directory name.
func (n Naming) Identify(name string) (Identity, error) {
	if !n.Matches(name) {
		return Identity{}, issues.Wrap(issues.ErrData, "sidecar", "identify", fmt.Sprintf("%q does not match %s", name, n.pattern), nil)
	}
	switch n.splitChar {
	case "+":
		parts := strings.Split(name, "+")
		id := Identity{PID: parts[0]}
		if len(parts) > 1 {
			id.PName = parts[1]
		}
		return id, nil
	case "-":
		parts := strings.Split(name, "-")
		if len(parts) < 3 {
			return Identity{}, issues.Wrap(issues.ErrData, "sidecar", "identify", fmt.Sprintf("%q has fewer than three '-' separated parts", name), nil)
		}
		return Identity{HPID: parts[1], PID: parts[2]}, nil
	default:
		pid := n.pattern.FindString(name)
		return Identity{PID: pid, PName: strings.TrimSpace(name[len(pid):])}, nil
	}
}
