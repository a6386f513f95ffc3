package marker_test

import (
	"errors"
	"slices"
	"testing"

	"mrimark/internal/issues"
	"mrimark/internal/marker"
	"mrimark/internal/rules"
	"mrimark/internal/series"
)

func defaultSet(t *testing.T) rules.Set {
	t.Helper()
	set, err := rules.Compile(rules.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return set
}

func newMarker(t *testing.T, mutate func(*marker.Options)) *marker.Marker {
	t.Helper()
	opts := marker.DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	m, err := marker.New(defaultSet(t), opts)
	if err != nil {
		t.Fatalf("marker.New: %v", err)
	}
	return m
}

func spacing(v float64) *float64 { return &v }

func TestAssignSequence(t *testing.T) {
	m := newMarker(t, nil)

	cases := []struct {
		name string
		rec  series.Record
		want string
	}{
		{"table label", series.Record{SeriesDescription: "t2_tse_tra"}, "T2"},
		{"later entry wins", series.Record{SeriesDescription: "OAx T1 FLAIR"}, "T1"},
		{"protocol substitutes missing description", series.Record{ProtocolName: "t2_tse_tra"}, "T2"},
		{"no rule matched", series.Record{SeriesDescription: "Brain 001"}, ""},
		{"others pattern", series.Record{SeriesDescription: "T1 Scout"}, rules.LabelOthers},
		{"protocol loc", series.Record{SeriesDescription: "t1_se", ProtocolName: "3Plane_Loc"}, rules.LabelOthers},
		{"five capitals", series.Record{SeriesDescription: "HEADS"}, rules.LabelOthers},
		{"five letters mixed case", series.Record{SeriesDescription: "Heads"}, ""},
		{"exact literal", series.Record{SeriesDescription: "HF"}, rules.LabelOthers},
		{"exact literal from protocol", series.Record{ProtocolName: "2"}, rules.LabelOthers},
		{"delete beats table", series.Record{SeriesDescription: "t1_STIR_cor"}, rules.LabelDelete},
		{"delete beats others", series.Record{SeriesDescription: "Scout STIR"}, rules.LabelDelete},
		{"delete on protocol", series.Record{SeriesDescription: "t2_tse", ProtocolName: "Thorax"}, rules.LabelDelete},
		{"junk manufacturer", series.Record{SeriesDescription: "t2_tse", Manufacturer: "export_jpg"}, rules.LabelDelete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.AssignSequence(tc.rec); got != tc.want {
				t.Fatalf("AssignSequence = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAssignSequenceKeepsSeedWhenNothingMatches(t *testing.T) {
	m := newMarker(t, nil)
	rec := series.Record{SeriesDescription: "Brain 001", Label: "T2"}
	if got := m.AssignSequence(rec); got != "T2" {
		t.Fatalf("expected seed label to survive, got %q", got)
	}
}

func TestAssignSequenceDoesNotPersistSubstitution(t *testing.T) {
	m := newMarker(t, nil)
	rec := series.Record{ProtocolName: "t2_tse_tra"}
	_ = m.AssignSequence(rec)
	if rec.SeriesDescription != "" {
		t.Fatalf("description must stay empty, got %q", rec.SeriesDescription)
	}
}

func TestApplyFallback(t *testing.T) {
	m := newMarker(t, nil)

	cases := []struct {
		name string
		rec  series.Record
		want string
	}{
		{
			name: "vendor and unlabeled uses protocol, last match wins",
			rec:  series.Record{Manufacturer: rules.DefaultFallbackVendor, ProtocolName: "T2 FLAIR AX"},
			want: "T2",
		},
		{
			name: "vendor flair only",
			rec:  series.Record{Manufacturer: rules.DefaultFallbackVendor, ProtocolName: "FLAIR AX"},
			want: "T2Flair",
		},
		{
			name: "labeled record untouched",
			rec:  series.Record{Manufacturer: rules.DefaultFallbackVendor, ProtocolName: "T1 AX", Label: "DWI"},
			want: "DWI",
		},
		{
			name: "other vendor untouched",
			rec:  series.Record{Manufacturer: "SIEMENS", ProtocolName: "T1 AX"},
			want: "",
		},
		{
			name: "vendor compares exactly",
			rec:  series.Record{Manufacturer: "toshiba_mec", ProtocolName: "T1 AX"},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.ApplyFallback(tc.rec); got != tc.want {
				t.Fatalf("ApplyFallback = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRefineT1Policies(t *testing.T) {
	literal := newMarker(t, nil)
	thin := newMarker(t, func(o *marker.Options) { o.SpacingPolicy = "thin_slice" })

	cases := []struct {
		name        string
		rec         series.Record
		wantLiteral string
		wantThin    string
	}{
		{"thin spacing", series.Record{Label: "T1", SeriesDescription: "t1_mprage_iso", SpacingBetweenSlices: spacing(1.0)}, "3DT1", "3DT1"},
		{"missing spacing", series.Record{Label: "T1", SeriesDescription: "t1_mprage_iso"}, "delete", "delete"},
		{"thick spacing", series.Record{Label: "T1", SeriesDescription: "t1_mprage_iso", SpacingBetweenSlices: spacing(3.0)}, "3DT1", "delete"},
		{"boundary spacing", series.Record{Label: "T1", SeriesDescription: "3D T1", SpacingBetweenSlices: spacing(1.5)}, "3DT1", "delete"},
		{"not volumetric", series.Record{Label: "T1", SeriesDescription: "t1_se_tra", SpacingBetweenSlices: spacing(1.0)}, "T1", "T1"},
		{"not T1", series.Record{Label: "T2", SeriesDescription: "t2_spc_iso"}, "T2", "T2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := literal.RefineT1(tc.rec); got != tc.wantLiteral {
				t.Fatalf("literal policy = %q, want %q", got, tc.wantLiteral)
			}
			if got := thin.RefineT1(tc.rec); got != tc.wantThin {
				t.Fatalf("thin_slice policy = %q, want %q", got, tc.wantThin)
			}
		})
	}
}

func TestRefineSWI(t *testing.T) {
	asymmetric := newMarker(t, nil)
	symmetric := newMarker(t, func(o *marker.Options) { o.Magnitude = true })

	cases := []struct {
		desc          string
		wantDefault   string
		wantMagnitude string
	}{
		{"SWI_PHA_images", "SWI_Pha", "SWI_Pha"},
		{"SWI_MAG_images", "SWI", "SWI_Mag"},
		{"Ax SWAN", "SWI", "SWI"},
	}
	for _, tc := range cases {
		rec := series.Record{Label: "SWI", SeriesDescription: tc.desc}
		if got := asymmetric.RefineSWI(rec); got != tc.wantDefault {
			t.Fatalf("%s: default = %q, want %q", tc.desc, got, tc.wantDefault)
		}
		if got := symmetric.RefineSWI(rec); got != tc.wantMagnitude {
			t.Fatalf("%s: magnitude enabled = %q, want %q", tc.desc, got, tc.wantMagnitude)
		}
	}

	if got := asymmetric.RefineSWI(series.Record{Label: "T2", SeriesDescription: "PHA"}); got != "T2" {
		t.Fatalf("non-SWI label changed to %q", got)
	}
}

func TestClassifyScenarios(t *testing.T) {
	m := newMarker(t, nil)
	cases := []struct {
		name string
		rec  series.Record
		want string
	}{
		{"3d t1 with spacing", series.Record{SeriesDescription: "t1_mprage_iso", SpacingBetweenSlices: spacing(1.0)}, "3DT1"},
		{"3d t1 without spacing", series.Record{SeriesDescription: "t1_mprage_iso"}, "delete"},
		{"swi phase", series.Record{SeriesDescription: "SWI_PHA_images"}, "SWI_Pha"},
		{"swi magnitude", series.Record{SeriesDescription: "SWI_MAG_images"}, "SWI"},
		{"vendor fallback then 3d", series.Record{Manufacturer: rules.DefaultFallbackVendor, SeriesDescription: "Brain 3D", ProtocolName: "T1 vol", SpacingBetweenSlices: spacing(0.8)}, "3DT1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Classify(tc.rec); got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	m := newMarker(t, nil)
	records := []series.Record{
		{SeriesDescription: "t1_mprage_iso", SpacingBetweenSlices: spacing(1.0)},
		{SeriesDescription: "t1_mprage_iso"},
		{SeriesDescription: "SWI_PHA_images"},
		{Manufacturer: rules.DefaultFallbackVendor, SeriesDescription: "Brain 3D", ProtocolName: "T1 vol"},
		{SeriesDescription: "Brain 001"},
		{SeriesDescription: "HEADS"},
		{SeriesDescription: "t1_STIR"},
	}
	for _, rec := range records {
		first := m.Classify(rec)
		rec.Label = first
		if second := m.Classify(rec); second != first {
			t.Fatalf("%q: second run gave %q, first %q", rec.SeriesDescription, second, first)
		}
	}
}

func TestClassifyLabelsAreKnown(t *testing.T) {
	m := newMarker(t, func(o *marker.Options) { o.Magnitude = true })
	known := append(m.Rules().Labels(), "", rules.Label3DT1, rules.LabelSWIPha, rules.LabelSWIMag)
	descs := []string{
		"", "t1", "T2 FLAIR", "dwi b=1000", "ADC", "TOF_3D", "pcasl", "DTI_30", "SWI_MAG",
		"qsm", "Plaque", "bold", "loc", "AAAAA", "A", "STIR", "random text", "MultiPlanar Reconstruction",
	}
	for _, desc := range descs {
		for _, vendor := range []string{"", rules.DefaultFallbackVendor, "x.jpg"} {
			got := m.Classify(series.Record{SeriesDescription: desc, ProtocolName: desc, Manufacturer: vendor})
			if !slices.Contains(known, got) {
				t.Fatalf("Classify(%q, %q) produced unknown label %q", desc, vendor, got)
			}
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	set := defaultSet(t)
	bad := []func(*marker.Options){
		func(o *marker.Options) { o.SpacingPolicy = "thick" },
		func(o *marker.Options) { o.MaxSpacing = 0 },
		func(o *marker.Options) { o.ThreeDPattern = "(" },
		func(o *marker.Options) { o.PhasePattern = "[" },
	}
	for i, mutate := range bad {
		opts := marker.DefaultOptions()
		mutate(&opts)
		if _, err := marker.New(set, opts); !errors.Is(err, issues.ErrConfiguration) {
			t.Fatalf("case %d: expected configuration error, got %v", i, err)
		}
	}
}

func TestPassesOrder(t *testing.T) {
	m := newMarker(t, nil)
	var names []string
	for _, p := range m.Passes() {
		names = append(names, p.Name)
	}
	want := []string{marker.PassSequence, marker.PassFallback, marker.PassT1ThreeD, marker.PassSWI}
	if !slices.Equal(names, want) {
		t.Fatalf("unexpected pass order %v", names)
	}
}
