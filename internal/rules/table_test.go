package rules_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mrimark/internal/issues"
	"mrimark/internal/rules"
)

func mustTable(t *testing.T, entries []rules.Entry) rules.Table {
	t.Helper()
	table, err := rules.NewTable(entries)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestTableLastMatchWins(t *testing.T) {
	table := mustTable(t, rules.DefaultSequence())

	cases := []struct {
		text string
		want string
	}{
		{"t2_tse_tra", "T2"},
		{"T2 FLAIR tra", "T2Flair"},
		{"OAx T1 FLAIR", "T1"},
		{"ep2d_diff DWI ADC", "ADC"},
		{"t1_mprage_sag", "T1"},
		{"Ax SWAN", "SWI"},
		{"resting_state_bold", "bold"},
	}
	for _, tc := range cases {
		m, ok := table.Match(tc.text)
		if !ok {
			t.Fatalf("expected %q to match", tc.text)
		}
		if m.Label != tc.want {
			t.Fatalf("Match(%q) = %q, want %q", tc.text, m.Label, tc.want)
		}
	}
}

func TestTableMatchIsCaseInsensitive(t *testing.T) {
	table := mustTable(t, []rules.Entry{{Label: "DTI", Pattern: "dti"}})
	if _, ok := table.Match("DTI_64dir"); !ok {
		t.Fatal("expected upper-case text to match lower-case pattern")
	}
}

func TestTableNoMatch(t *testing.T) {
	table := mustTable(t, rules.DefaultSequence())
	if m, ok := table.Match("localizer_3plane"); ok {
		t.Fatalf("expected no match, got %+v", m)
	}
}

func TestTableMatchesOrderedByPriority(t *testing.T) {
	table := mustTable(t, []rules.Entry{
		{Label: "A", Pattern: "x"},
		{Label: "B", Pattern: "y"},
		{Label: "C", Pattern: "x"},
	})
	got := table.Matches("xy")
	want := []rules.Match{
		{Label: "C", Pattern: "x", Priority: 2},
		{Label: "B", Pattern: "y", Priority: 1},
		{Label: "A", Pattern: "x", Priority: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Matches mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeReplacesInPlaceAndAppendsNew(t *testing.T) {
	base := mustTable(t, []rules.Entry{
		{Label: "T2", Pattern: "T2"},
		{Label: "T1", Pattern: "T1"},
	})
	merged, err := base.Merge(
		rules.Entry{Label: "T2", Pattern: "T2|weird_t2"},
		rules.Entry{Label: "PD", Pattern: "PD"},
	)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []rules.Entry{
		{Label: "T2", Pattern: "T2|weird_t2"},
		{Label: "T1", Pattern: "T1"},
		{Label: "PD", Pattern: "PD"},
	}
	if diff := cmp.Diff(want, merged.Entries()); diff != "" {
		t.Fatalf("merged entries mismatch (-want +got):\n%s", diff)
	}
	if base.Len() != 2 {
		t.Fatalf("expected base table to be unchanged, got %d entries", base.Len())
	}
	// T1 keeps its position, so it still outranks the replaced T2 entry.
	if m, _ := merged.Match("weird_t2 T1"); m.Label != "T1" {
		t.Fatalf("expected T1 to win, got %q", m.Label)
	}
}

func TestNewTableDuplicateLabelKeepsFirstPosition(t *testing.T) {
	table := mustTable(t, []rules.Entry{
		{Label: "A", Pattern: "a"},
		{Label: "B", Pattern: "b"},
		{Label: "A", Pattern: "z"},
	})
	if diff := cmp.Diff([]string{"A", "B"}, table.Labels()); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if _, ok := table.Match("a"); ok {
		t.Fatal("expected replaced pattern to no longer match")
	}
}

func TestNewTableRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name  string
		entry rules.Entry
	}{
		{"bad regex", rules.Entry{Label: "T1", Pattern: "T1("}},
		{"missing label", rules.Entry{Label: " ", Pattern: "x"}},
		{"empty pattern", rules.Entry{Label: "X", Pattern: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rules.NewTable([]rules.Entry{tc.entry})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, issues.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestPatternZeroValueNeverMatches(t *testing.T) {
	var p rules.Pattern
	if p.MatchString("anything") || p.Enabled() {
		t.Fatal("zero pattern must be disabled")
	}
	empty, err := rules.CompilePattern("  ")
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if empty.MatchString("anything") {
		t.Fatal("empty pattern must not match")
	}
}

func TestExactPatternIsCaseSensitive(t *testing.T) {
	p, err := rules.CompileExactPattern(`^[A-Z]{5}$`)
	if err != nil {
		t.Fatalf("CompileExactPattern: %v", err)
	}
	if !p.MatchString("ABCDE") {
		t.Fatal("expected ABCDE to match")
	}
	for _, s := range []string{"abcde", "ABCD", "ABCDEF", "ABC1E"} {
		if p.MatchString(s) {
			t.Fatalf("expected %q not to match", s)
		}
	}
}
