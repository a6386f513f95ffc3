package series

// Column names read from and written to the metadata table.
const (
	ColumnPID                 = "pid"
	ColumnSeriesDescription   = "SeriesDescription"
	ColumnProtocolName        = "ProtocolName"
	ColumnManufacturer        = "Manufacturer"
	ColumnSpacing             = "SpacingBetweenSlices"
	ColumnAcquisitionDateTime = "AcquisitionDateTime"
	ColumnStudyDate           = "StudyDate"
	ColumnStudyRound          = "StudyRound"
	DefaultLabelColumn        = "Label"
)

// Record is one acquired series. Label, StudyDate and StudyRound are the
// output fields; everything else is read-only input.
type Record struct {
	Row                  int
	PID                  string
	SeriesDescription    string
	ProtocolName         string
	Manufacturer         string
	SpacingBetweenSlices *float64
	AcquisitionDateTime  string

	Label      string
	StudyDate  string
	StudyRound string
}

// Description returns the text matched against the rule table: the series
// description, or the protocol name when the description is missing.
func (r Record) Description() string {
	if r.SeriesDescription == "" {
		return r.ProtocolName
	}
	return r.SeriesDescription
}

// Spacing returns the slice spacing and whether it is present.
func (r Record) Spacing() (float64, bool) {
	if r.SpacingBetweenSlices == nil {
		return 0, false
	}
	return *r.SpacingBetweenSlices, true
}

