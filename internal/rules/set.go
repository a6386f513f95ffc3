package rules

import (
	"fmt"
	"slices"
	"strings"

	"mrimark/internal/issues"
)

// Text fields a fallback table may be evaluated against.
const (
	FieldSeriesDescription = "SeriesDescription"
	FieldProtocolName      = "ProtocolName"
)

// Fallback is a compiled vendor-specific table.
type Fallback struct {
	Vendor string
	Field  string
	Table  Table
}

// Set is the compiled, immutable rule configuration consumed by the label
// assignment pipeline.
type Set struct {
	Sequence           Table
	Others             Pattern
	Delete             Pattern
	ManufacturerDelete Pattern
	ProtocolOthers     Pattern
	UppercaseOthers    Pattern
	OthersExact        []string
	Fallbacks          []Fallback
}

// Compile validates and compiles cfg. Any invalid pattern is reported as an
// issues.ErrConfiguration error naming the offending slot.
func Compile(cfg Config) (Set, error) {
	var (
		set Set
		err error
	)
	if set.Sequence, err = NewTable(cfg.Sequence); err != nil {
		return Set{}, fmt.Errorf("rules.sequence: %w", err)
	}
	if set.Others, err = CompilePattern(slotSource(cfg.Others)); err != nil {
		return Set{}, fmt.Errorf("rules.others: %w", err)
	}
	if set.Delete, err = CompilePattern(slotSource(cfg.Delete)); err != nil {
		return Set{}, fmt.Errorf("rules.delete: %w", err)
	}
	if set.ManufacturerDelete, err = CompilePattern(slotSource(cfg.ManufacturerDelete)); err != nil {
		return Set{}, fmt.Errorf("rules.manufacturer_delete: %w", err)
	}
	if set.ProtocolOthers, err = CompilePattern(slotSource(cfg.ProtocolOthers)); err != nil {
		return Set{}, fmt.Errorf("rules.protocol_others: %w", err)
	}
	if set.UppercaseOthers, err = CompileExactPattern(slotSource(cfg.UppercaseOthers)); err != nil {
		return Set{}, fmt.Errorf("rules.uppercase_others: %w", err)
	}
	set.OthersExact = slices.Clone(cfg.OthersExact)
	for _, fb := range cfg.Fallback {
		compiled, err := compileFallback(fb.Vendor, fb.Field, fb.Sequence)
		if err != nil {
			return Set{}, err
		}
		set.Fallbacks = append(set.Fallbacks, compiled)
	}
	return set, nil
}

func compileFallback(vendor, field string, entries []Entry) (Fallback, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return Fallback{}, issues.Wrap(issues.ErrConfiguration, "rules", "fallback", "vendor is required", nil)
	}
	switch field {
	case "":
		field = FieldProtocolName
	case FieldProtocolName, FieldSeriesDescription:
	default:
		return Fallback{}, issues.Wrap(issues.ErrConfiguration, "rules", "fallback", fmt.Sprintf("vendor %q: unsupported field %q", vendor, field), nil)
	}
	table, err := NewTable(entries)
	if err != nil {
		return Fallback{}, fmt.Errorf("rules.fallback[%s]: %w", vendor, err)
	}
	return Fallback{Vendor: vendor, Field: field, Table: table}, nil
}

// WithSequence returns a copy of s with entries merged into the main table.
func (s Set) WithSequence(entries ...Entry) (Set, error) {
	table, err := s.Sequence.Merge(entries...)
	if err != nil {
		return Set{}, err
	}
	out := s.clone()
	out.Sequence = table
	return out, nil
}

// WithOthers returns a copy of s with the "Others" pattern replaced.
func (s Set) WithOthers(pattern string) (Set, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return Set{}, err
	}
	out := s.clone()
	out.Others = p
	return out, nil
}

// WithDelete returns a copy of s with the "delete" pattern replaced.
func (s Set) WithDelete(pattern string) (Set, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return Set{}, err
	}
	out := s.clone()
	out.Delete = p
	return out, nil
}

// WithFallback returns a copy of s whose table for vendor is replaced by
// entries evaluated against field.
func (s Set) WithFallback(vendor, field string, entries ...Entry) (Set, error) {
	fb, err := compileFallback(vendor, field, entries)
	if err != nil {
		return Set{}, err
	}
	out := s.clone()
	for i := range out.Fallbacks {
		if out.Fallbacks[i].Vendor == fb.Vendor {
			out.Fallbacks[i] = fb
			return out, nil
		}
	}
	out.Fallbacks = append(out.Fallbacks, fb)
	return out, nil
}

// Fallback returns the table registered for vendor. Vendor names compare
// exactly.
func (s Set) Fallback(vendor string) (Fallback, bool) {
	for _, fb := range s.Fallbacks {
		if fb.Vendor == vendor {
			return fb, true
		}
	}
	return Fallback{}, false
}

// IsOthersExact reports whether text is one of the literal "Others" strings.
func (s Set) IsOthersExact(text string) bool {
	return slices.Contains(s.OthersExact, text)
}

// Labels returns every label the set can assign, including the override
// labels, in first-seen order.
func (s Set) Labels() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	for _, l := range s.Sequence.Labels() {
		add(l)
	}
	for _, fb := range s.Fallbacks {
		for _, l := range fb.Table.Labels() {
			add(l)
		}
	}
	add(LabelOthers)
	add(LabelDelete)
	return out
}

func (s Set) clone() Set {
	out := s
	out.OthersExact = slices.Clone(s.OthersExact)
	out.Fallbacks = slices.Clone(s.Fallbacks)
	return out
}
