package rounds

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"mrimark/internal/issues"
	"mrimark/internal/series"
)

const (
	// DateLayout is the StudyDate format.
	DateLayout = "2006-01-02"
	// DefaultGapDays is the longest gap, in days, that stays inside one round.
	DefaultGapDays = 180
	// Unparseable tags records whose acquisition date could not be read.
	Unparseable = "unparseable"
	// Stage names round issues.
	Stage = "rounds"
)

// ParseStudyDate parses the date portion of an AcquisitionDateTime value.
func ParseStudyDate(acquisition string) (time.Time, error) {
	value := strings.TrimSpace(acquisition)
	if len(value) > len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	if value == "" {
		return time.Time{}, issues.Wrap(issues.ErrData, Stage, "parse date", "acquisition date is empty", nil)
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, issues.Wrap(issues.ErrData, Stage, "parse date", fmt.Sprintf("invalid date %q", value), err)
	}
	return date, nil
}

// Visit pairs a study date with its round number.
type Visit struct {
	Date  time.Time
	Round int
}

// Tag returns the round label, e.g. "V2".
func (v Visit) Tag() string { return Tag(v.Round) }

// Tag formats a round number as its label.
func Tag(round int) string { return "V" + strconv.Itoa(round) }

// Segment assigns round numbers to the distinct dates of one subject. The
// input order does not matter; the result is sorted by date.
func Segment(dates []time.Time, gapDays int) []Visit {
	sorted := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		sorted = append(sorted, truncateDay(d))
	}
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	sorted = slices.CompactFunc(sorted, func(a, b time.Time) bool { return a.Equal(b) })

	visits := make([]Visit, 0, len(sorted))
	var start time.Time
	round := 0
	for _, d := range sorted {
		if round == 0 || daysBetween(start, d) > gapDays {
			round++
			start = d
		}
		visits = append(visits, Visit{Date: d, Round: round})
	}
	return visits
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Segmenter fills StudyDate and StudyRound on a record set.
type Segmenter struct {
	GapDays int
}

// New returns a Segmenter using gapDays, or DefaultGapDays when gapDays is
// not positive.
func New(gapDays int) Segmenter {
	if gapDays <= 0 {
		gapDays = DefaultGapDays
	}
	return Segmenter{GapDays: gapDays}
}

// Assign derives StudyDate and StudyRound for every record in place. Records
// with an unreadable date get an empty StudyDate, the Unparseable round and an
// issue; the rest of their subject is segmented without them.
func (s Segmenter) Assign(records []series.Record) issues.List {
	gap := s.GapDays
	if gap <= 0 {
		gap = DefaultGapDays
	}

	var problems issues.List
	dates := make(map[string][]time.Time)
	parsed := make([]time.Time, len(records))
	valid := make([]bool, len(records))
	var order []string

	for i := range records {
		rec := &records[i]
		date, err := ParseStudyDate(rec.AcquisitionDateTime)
		if err != nil {
			rec.StudyDate = ""
			rec.StudyRound = Unparseable
			problems.Add(issues.Issue{
				Row:   rec.Row,
				PID:   rec.PID,
				Stage: Stage,
				Field: series.ColumnAcquisitionDateTime,
				Value: rec.AcquisitionDateTime,
				Err:   err,
			})
			continue
		}
		if _, seen := dates[rec.PID]; !seen {
			order = append(order, rec.PID)
		}
		dates[rec.PID] = append(dates[rec.PID], date)
		parsed[i] = date
		valid[i] = true
	}

	rounds := make(map[string]map[time.Time]int, len(order))
	for _, pid := range order {
		byDate := make(map[time.Time]int)
		for _, v := range Segment(dates[pid], gap) {
			byDate[v.Date] = v.Round
		}
		rounds[pid] = byDate
	}

	for i := range records {
		if !valid[i] {
			continue
		}
		rec := &records[i]
		rec.StudyDate = parsed[i].Format(DateLayout)
		rec.StudyRound = Tag(rounds[rec.PID][parsed[i]])
	}
	return problems
}
