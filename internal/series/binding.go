package series

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mrimark/internal/issues"
	"mrimark/internal/table"
)

const stageLoad = "load"

// LoadOptions controls how records are read from a table.
type LoadOptions struct {
	// LabelColumn names the output label column. Defaults to "Label".
	LabelColumn string
	// KeepLabels seeds each record's Label from an existing label column
	// instead of starting empty.
	KeepLabels bool
}

func (o LoadOptions) labelColumn() string {
	if name := strings.TrimSpace(o.LabelColumn); name != "" {
		return name
	}
	return DefaultLabelColumn
}

// Load builds one Record per table row. The pid and AcquisitionDateTime
// columns are required; every other input column may be absent and reads as
// empty. Cells that cannot be interpreted are reported as issues and treated
// as missing.
func Load(t *table.Table, opts LoadOptions) ([]Record, issues.List, error) {
	for _, required := range []string{ColumnPID, ColumnAcquisitionDateTime} {
		if !t.Has(required) {
			return nil, nil, issues.Wrap(issues.ErrData, stageLoad, "check columns", fmt.Sprintf("required column %q is missing", required), nil)
		}
	}

	var (
		pid      = t.Index(ColumnPID)
		desc     = t.Index(ColumnSeriesDescription)
		protocol = t.Index(ColumnProtocolName)
		vendor   = t.Index(ColumnManufacturer)
		spacing  = t.Index(ColumnSpacing)
		acquired = t.Index(ColumnAcquisitionDateTime)
		label    = t.Index(opts.labelColumn())
	)

	records := make([]Record, t.Len())
	var found issues.List
	for i := range t.Rows {
		rec := Record{
			Row:                 i,
			PID:                 t.Cell(i, pid),
			SeriesDescription:   t.Cell(i, desc),
			ProtocolName:        t.Cell(i, protocol),
			Manufacturer:        t.Cell(i, vendor),
			AcquisitionDateTime: t.Cell(i, acquired),
		}
		if opts.KeepLabels {
			rec.Label = t.Cell(i, label)
		}
		if raw := strings.TrimSpace(t.Cell(i, spacing)); raw != "" {
			value, err := ParseSpacing(raw)
			if err != nil {
				found.Add(issues.Issue{Row: i, PID: rec.PID, Stage: stageLoad, Field: ColumnSpacing, Value: raw, Err: err})
			} else {
				rec.SpacingBetweenSlices = value
			}
		}
		records[i] = rec
	}
	return records, found, nil
}

// ParseSpacing parses a slice spacing cell. NaN reads as missing.
func ParseSpacing(raw string) (*float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, issues.Wrap(issues.ErrData, stageLoad, "parse spacing", "not a number", nil)
	}
	if math.IsNaN(value) {
		return nil, nil
	}
	return &value, nil
}

// Store writes the output fields of records back into t, creating the label,
// StudyDate and StudyRound columns when needed.
func Store(t *table.Table, records []Record, labelColumn string) {
	if strings.TrimSpace(labelColumn) == "" {
		labelColumn = DefaultLabelColumn
	}
	label := t.EnsureColumn(labelColumn)
	date := t.EnsureColumn(ColumnStudyDate)
	round := t.EnsureColumn(ColumnStudyRound)
	for _, rec := range records {
		if rec.Row < 0 || rec.Row >= t.Len() {
			continue
		}
		t.SetCell(rec.Row, label, rec.Label)
		t.SetCell(rec.Row, date, rec.StudyDate)
		t.SetCell(rec.Row, round, rec.StudyRound)
	}
}
