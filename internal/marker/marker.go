package marker

import (
	"fmt"

	"mrimark/internal/issues"
	"mrimark/internal/rules"
	"mrimark/internal/series"
)

// Pass names, in execution order.
const (
	PassSequence = "sequence"
	PassFallback = "fallback"
	PassT1ThreeD = "t1_3d"
	PassSWI      = "swi"
)

// Pass is one labeling step. Apply returns the record's new label.
type Pass struct {
	Name  string
	Apply func(series.Record) string
}

// Marker holds the compiled rules and refinement settings.
type Marker struct {
	rules      rules.Set
	threeD     rules.Pattern
	policy     SpacingPolicy
	maxSpacing float64
	phase      rules.Pattern
	magnitude  rules.Pattern
	useMag     bool
}

// New compiles the refinement patterns and returns a Marker for set.
func New(set rules.Set, opts Options) (*Marker, error) {
	policy, err := ParseSpacingPolicy(opts.SpacingPolicy)
	if err != nil {
		return nil, err
	}
	if opts.MaxSpacing <= 0 {
		return nil, issues.Wrap(issues.ErrConfiguration, "marker", "max spacing", fmt.Sprintf("must be positive, got %v", opts.MaxSpacing), nil)
	}
	threeD, err := rules.CompilePattern(opts.ThreeDPattern)
	if err != nil {
		return nil, fmt.Errorf("refine.t1_3d_pattern: %w", err)
	}
	phase, err := rules.CompilePattern(opts.PhasePattern)
	if err != nil {
		return nil, fmt.Errorf("refine.swi_phase_pattern: %w", err)
	}
	magnitude, err := rules.CompilePattern(opts.MagnitudePattern)
	if err != nil {
		return nil, fmt.Errorf("refine.swi_magnitude_pattern: %w", err)
	}
	return &Marker{
		rules:      set,
		threeD:     threeD,
		policy:     policy,
		maxSpacing: opts.MaxSpacing,
		phase:      phase,
		magnitude:  magnitude,
		useMag:     opts.Magnitude,
	}, nil
}

// Rules returns the rule set the marker was built with.
func (m *Marker) Rules() rules.Set { return m.rules }

// Policy returns the active 3D-T1 spacing policy.
func (m *Marker) Policy() SpacingPolicy { return m.policy }

// Passes returns the labeling passes in execution order.
func (m *Marker) Passes() []Pass {
	return []Pass{
		{Name: PassSequence, Apply: m.AssignSequence},
		{Name: PassFallback, Apply: m.ApplyFallback},
		{Name: PassT1ThreeD, Apply: m.RefineT1},
		{Name: PassSWI, Apply: m.RefineSWI},
	}
}

// Classify runs every pass over a single record and returns its final label.
func (m *Marker) Classify(rec series.Record) string {
	for _, pass := range m.Passes() {
		rec.Label = pass.Apply(rec)
	}
	return rec.Label
}

// AssignSequence applies the main table followed by the "Others" and
// "delete" overrides. A record that matches nothing keeps its current label.
func (m *Marker) AssignSequence(rec series.Record) string {
	label := rec.Label
	desc := rec.Description()

	if match, ok := m.rules.Sequence.Match(desc); ok {
		label = match.Label
	}
	if m.isOthers(rec, desc) {
		label = rules.LabelOthers
	}
	if m.isDelete(rec, desc) {
		label = rules.LabelDelete
	}
	return label
}

func (m *Marker) isOthers(rec series.Record, desc string) bool {
	return m.rules.Others.MatchString(desc) ||
		m.rules.ProtocolOthers.MatchString(rec.ProtocolName) ||
		m.rules.UppercaseOthers.MatchString(desc) ||
		m.rules.IsOthersExact(desc)
}

func (m *Marker) isDelete(rec series.Record, desc string) bool {
	return m.rules.ManufacturerDelete.MatchString(rec.Manufacturer) ||
		m.rules.Delete.MatchString(desc) ||
		m.rules.Delete.MatchString(rec.ProtocolName)
}

// ApplyFallback labels a still-unlabeled record from its vendor's fallback
// table. Labeled records and other vendors pass through unchanged.
func (m *Marker) ApplyFallback(rec series.Record) string {
	if rec.Label != "" {
		return rec.Label
	}
	fb, ok := m.rules.Fallback(rec.Manufacturer)
	if !ok {
		return rec.Label
	}
	text := rec.ProtocolName
	if fb.Field == rules.FieldSeriesDescription {
		text = rec.SeriesDescription
	}
	if match, ok := fb.Table.Match(text); ok {
		return match.Label
	}
	return rec.Label
}

// RefineT1 splits volumetric T1 series into 3DT1 or delete.
func (m *Marker) RefineT1(rec series.Record) string {
	if rec.Label != rules.LabelT1 || !m.threeD.MatchString(rec.SeriesDescription) {
		return rec.Label
	}
	spacing, ok := rec.Spacing()
	switch m.policy {
	case SpacingThinSlice:
		if ok && spacing < m.maxSpacing {
			return rules.Label3DT1
		}
	default:
		if ok {
			return rules.Label3DT1
		}
	}
	return rules.LabelDelete
}

// RefineSWI relabels SWI phase images as SWI_Pha. Magnitude images become
// SWI_Mag only when that label is enabled.
func (m *Marker) RefineSWI(rec series.Record) string {
	if rec.Label != rules.LabelSWI {
		return rec.Label
	}
	if m.phase.MatchString(rec.SeriesDescription) {
		return rules.LabelSWIPha
	}
	if m.useMag && m.magnitude.MatchString(rec.SeriesDescription) {
		return rules.LabelSWIMag
	}
	return rules.LabelSWI
}
