package placement

import "mrimark/internal/table"

// joiner finds the classified row describing a sidecar.
type joiner struct {
	t      *table.Table
	fields []string
}

// find returns the first row equal to meta on every match field meta
// carries. A sidecar carrying none of the fields matches nothing.
func (j joiner) find(meta map[string]string) (int, bool) {
	type check struct {
		col   int
		value string
	}
	var checks []check
	for _, field := range j.fields {
		value, ok := meta[field]
		if !ok {
			continue
		}
		checks = append(checks, check{col: j.t.Index(field), value: value})
	}
	if len(checks) == 0 {
		return -1, false
	}
	for row := range j.t.Rows {
		matched := true
		for _, c := range checks {
			if j.t.Cell(row, c.col) != c.value {
				matched = false
				break
			}
		}
		if matched {
			return row, true
		}
	}
	return -1, false
}
