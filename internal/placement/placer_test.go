package placement_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"mrimark/internal/config"
	"mrimark/internal/fileutil"
	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/placement"
	"mrimark/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	source string
	table  string
	dst    string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	f := fixture{
		cfg:    cfg,
		source: filepath.Join(base, "nifti"),
		table:  filepath.Join(base, "labeled.csv"),
		dst:    filepath.Join(base, "sorted"),
	}
	subject := filepath.Join(f.source, "1+SiteA", "001+Zhang")

	writeSeries(t, filepath.Join(subject, "s1", "t1"), ".nii.gz", map[string]any{
		"SeriesDescription": "t1_mprage_iso", "Manufacturer": "SIEMENS", "SeriesInstanceUID": "1.1", "SeriesNumber": 3,
	})
	writeSeries(t, filepath.Join(subject, "s2", "dwi"), ".nii.gz", map[string]any{
		"SeriesDescription": "ep2d_diff", "Manufacturer": "SIEMENS", "SeriesInstanceUID": "1.2", "SeriesNumber": 5,
	})
	testsupport.WriteText(t, filepath.Join(subject, "s2", "dwi.bval"), "0 1000")
	testsupport.WriteText(t, filepath.Join(subject, "s2", "dwi.bvec"), "0 1 0")
	writeSeries(t, filepath.Join(subject, "s3", "loc"), ".nii.gz", map[string]any{
		"SeriesDescription": "localizer", "Manufacturer": "SIEMENS", "SeriesInstanceUID": "1.3", "SeriesNumber": 1,
	})
	writeSeries(t, filepath.Join(subject, "s4", "misc"), ".nii", map[string]any{
		"SeriesDescription": "mystery", "Manufacturer": "SIEMENS", "SeriesInstanceUID": "1.4", "SeriesNumber": 4,
	})
	writeSeries(t, filepath.Join(subject, "s5", "stray"), ".nii.gz", map[string]any{
		"SeriesDescription": "stray", "Manufacturer": "SIEMENS", "SeriesInstanceUID": "9.9", "SeriesNumber": 9,
	})
	testsupport.WriteFile(t, filepath.Join(subject, "s6", "orphan.nii.gz"), 8)
	testsupport.WriteFile(t, filepath.Join(subject, "s6", "._orphan.nii.gz"), 8)
	testsupport.WriteFile(t, filepath.Join(f.source, "1+SiteA", "scratch", "x.nii.gz"), 8)

	testsupport.WriteTable(t, f.table,
		[]string{"SeriesDescription", "Manufacturer", "SeriesInstanceUID", "Label", "StudyDate", "StudyRound"},
		[]string{"t1_mprage_iso", "SIEMENS", "1.1", "3DT1", "2020-01-01", "V1"},
		[]string{"ep2d_diff", "SIEMENS", "1.2", "DWI", "2020-01-01", "V1"},
		[]string{"localizer", "SIEMENS", "1.3", "delete", "2020-01-01", "V1"},
		[]string{"mystery", "SIEMENS", "1.4", "", "2020-09-01", "V2"},
	)
	return f
}

func writeSeries(t *testing.T, base, ext string, meta map[string]any) {
	t.Helper()
	testsupport.WriteFile(t, base+ext, 32)
	testsupport.WriteJSON(t, base+".json", meta)
}

func newPlacer(t *testing.T, cfg *config.Config) *placement.Placer {
	t.Helper()
	p, err := placement.NewPlacer(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}
	return p
}

func mustExist(t *testing.T, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if !fileutil.Exists(path) {
			t.Fatalf("expected %s to exist", path)
		}
	}
}

func mustNotExist(t *testing.T, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if fileutil.Exists(path) {
			t.Fatalf("expected %s to be absent", path)
		}
	}
}

func TestPlaceCopiesIntoLabeledTree(t *testing.T) {
	f := newFixture(t)
	result, err := newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.dst, false)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(result.Placed) != 3 || len(result.Skipped) != 1 || result.Issues.Len() != 2 {
		t.Fatalf("unexpected result: placed=%d skipped=%d issues=%v", len(result.Placed), len(result.Skipped), result.Issues)
	}
	for _, placed := range result.Placed {
		if placed.Action != placement.ActionCopy {
			t.Fatalf("auto mode into a separate tree should copy, got %s", placed.Action)
		}
	}
	if result.Skipped[0].Label != "delete" {
		t.Fatalf("expected the delete series to be skipped, got %+v", result.Skipped[0])
	}

	root := filepath.Join(f.dst, "1+SiteA", "MAP-001-001")
	mustExist(t,
		filepath.Join(root, "V1", "3DT1", "V1_2020-01-01_3_3DT1.nii.gz"),
		filepath.Join(root, "V1", "3DT1", "V1_2020-01-01_3_3DT1.json"),
		filepath.Join(root, "V1", "DWI", "V1_2020-01-01_5_DWI.nii.gz"),
		filepath.Join(root, "V1", "DWI", "V1_2020-01-01_5_DWI.bval"),
		filepath.Join(root, "V1", "DWI", "V1_2020-01-01_5_DWI.bvec"),
		filepath.Join(root, "V2", "uncategorized", "V2_2020-09-01_4_uncategorized.nii"),
		filepath.Join(f.source, "1+SiteA", "001+Zhang", "s1", "t1.nii.gz"),
	)
	mustNotExist(t,
		filepath.Join(root, "V1", "delete", "V1_2020-01-01_1_delete.nii.gz"),
		filepath.Join(root, "V1", "3DT1", "V1_2020-01-01_3_3DT1.bval"),
		filepath.Join(f.dst, placement.LockFileName),
	)

	var kinds []error
	for _, issue := range result.Issues {
		kinds = append(kinds, issue.Err)
	}
	for _, err := range kinds {
		if !errors.Is(err, issues.ErrNotFound) {
			t.Fatalf("expected not-found issues for the orphan and the unmatched series, got %v", err)
		}
	}
}

func TestPlaceMovesWhenDestinationIsSource(t *testing.T) {
	f := newFixture(t)
	result, err := newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.source, false)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(result.Placed) != 3 || result.Placed[0].Action != placement.ActionMove {
		t.Fatalf("expected three moves, got %+v", result.Placed)
	}
	mustExist(t, filepath.Join(f.source, "1+SiteA", "MAP-001-001", "V1", "3DT1", "V1_2020-01-01_3_3DT1.nii.gz"))
	mustNotExist(t,
		filepath.Join(f.source, "1+SiteA", "001+Zhang", "s1", "t1.nii.gz"),
		filepath.Join(f.source, "1+SiteA", "001+Zhang", "s2", "dwi.bval"),
	)
	mustExist(t, filepath.Join(f.source, "1+SiteA", "001+Zhang", "s3", "loc.nii.gz"))
}

func TestPlaceDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	result, err := newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.dst, true)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if !result.DryRun || len(result.Placed) != 3 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	want := filepath.Join(f.dst, "1+SiteA", "MAP-001-001", "V1", "3DT1")
	if result.Placed[0].Dir != want || result.Placed[0].Stem != "V1_2020-01-01_3_3DT1" {
		t.Fatalf("unexpected plan %+v", result.Placed[0])
	}
	mustNotExist(t, filepath.Join(want, "V1_2020-01-01_3_3DT1.nii.gz"))
}

func TestPlaceKeepsDeletedWhenConfigured(t *testing.T) {
	f := newFixture(t, testsupport.WithConfig(func(c *config.Config) {
		c.Placement.SkipDeleted = false
		c.Placement.Mode = config.PlacementModeCopy
	}))
	result, err := newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.dst, false)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(result.Placed) != 4 || len(result.Skipped) != 0 {
		t.Fatalf("unexpected result placed=%d skipped=%d", len(result.Placed), len(result.Skipped))
	}
	mustExist(t, filepath.Join(f.dst, "1+SiteA", "MAP-001-001", "V1", "delete", "V1_2020-01-01_1_delete.nii.gz"))
}

func TestPlaceRefusesLockedDestination(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteText(t, filepath.Join(f.dst, "keep"), "")
	lock := flock.New(filepath.Join(f.dst, placement.LockFileName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	_, err = newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.dst, false)
	if !errors.Is(err, issues.ErrIO) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestPlaceRequiresClassifiedTable(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteTable(t, f.table, []string{"SeriesDescription", "Label"}, []string{"t1", "T1"})
	_, err := newPlacer(t, f.cfg).Place(context.Background(), f.source, f.table, f.dst, false)
	if !errors.Is(err, issues.ErrData) {
		t.Fatalf("expected data error, got %v", err)
	}
}
