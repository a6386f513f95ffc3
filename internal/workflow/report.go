package workflow

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"mrimark/internal/issues"
	"mrimark/internal/series"
)

// Report summarizes one classify run.
type Report struct {
	RunID    string
	Input    string
	Output   string
	Started  time.Time
	Finished time.Time

	Records     int
	Counts      map[string]int
	Unlabeled   int
	Passes      []PassResult
	Issues      issues.List
	RoundCount  map[string]int
	RulesDigest string
	// Recorded is set once the run is stored in the history.
	Recorded bool
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Labels returns the labels seen in the run, most frequent first and then by
// name. Unlabeled records are not included.
func (r Report) Labels() []string {
	labels := slices.Collect(maps.Keys(r.Counts))
	slices.SortFunc(labels, func(a, b string) int {
		if r.Counts[a] != r.Counts[b] {
			return r.Counts[b] - r.Counts[a]
		}
		return cmp.Compare(a, b)
	})
	return labels
}

func tally(records []series.Record) (counts map[string]int, unlabeled int, roundsBySubject map[string]int) {
	counts = make(map[string]int)
	roundsBySubject = make(map[string]int)
	seen := make(map[[2]string]struct{})
	for _, rec := range records {
		if rec.Label == "" {
			unlabeled++
		} else {
			counts[rec.Label]++
		}
		if rec.StudyDate == "" {
			continue
		}
		key := [2]string{rec.PID, rec.StudyRound}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			roundsBySubject[rec.PID]++
		}
	}
	return counts, unlabeled, roundsBySubject
}
