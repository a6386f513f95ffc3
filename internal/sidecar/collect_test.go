package sidecar_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/simplifiedchinese"

	"mrimark/internal/config"
	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/sidecar"
	"mrimark/internal/testsupport"
)

func ingestConfig() config.Ingest {
	return config.Default().Ingest
}

func newCollector(t *testing.T, cfg config.Ingest) *sidecar.Collector {
	t.Helper()
	c, err := sidecar.NewCollector(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c
}

func TestCollectWritesSubjectTables(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "meta")
	subject := filepath.Join(src, "1+SiteA", "001+Zhang")

	testsupport.WriteText(t, filepath.Join(subject, "s1", "a.json"),
		`{"SeriesDescription":"t1_mprage_iso","Manufacturer":"SIEMENS","SeriesNumber":3}`)
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(`{"SeriesDescription":"颅脑平扫","InstitutionName":"医院","SeriesNumber":4}`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testsupport.WriteText(t, filepath.Join(subject, "s2", "b.json"), gbk)
	testsupport.WriteText(t, filepath.Join(subject, "s2", "._b.json"), "junk")
	testsupport.WriteText(t, filepath.Join(subject, "s3", "bad.json"), "not json")
	testsupport.WriteText(t, filepath.Join(src, "1+SiteA", "notes", "x.json"), `{"a":1}`)
	testsupport.WriteText(t, filepath.Join(src, "1+SiteA", "002+Li", "readme.txt"), "empty")

	result, err := newCollector(t, ingestConfig()).Collect(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(result.Subjects) != 1 || result.Rows() != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Skipped) != 1 || filepath.Base(result.Skipped[0]) != "notes" {
		t.Fatalf("unexpected skipped %v", result.Skipped)
	}
	if result.Issues.Len() != 1 || !errors.Is(result.Issues[0].Err, issues.ErrData) {
		t.Fatalf("expected one data issue for bad.json, got %v", result.Issues)
	}

	tbl := testsupport.ReadTable(t, filepath.Join(dst, "001+Zhang"+sidecar.MetadataSuffix))
	wantHeader := []string{"SeriesDescription", "Manufacturer", "SeriesNumber", "pid", "pName", "InstitutionName"}
	if diff := cmp.Diff(wantHeader, tbl.Header); diff != "" {
		t.Fatalf("header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"t1_mprage_iso", "颅脑平扫"}, testsupport.Column(t, tbl, "SeriesDescription")); diff != "" {
		t.Fatalf("descriptions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"001", "001"}, testsupport.Column(t, tbl, "pid")); diff != "" {
		t.Fatalf("pid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Zhang", "Zhang"}, testsupport.Column(t, tbl, "pName")); diff != "" {
		t.Fatalf("pName (-want +got):\n%s", diff)
	}
}

// Legacy bytes that also form valid UTF-8 are read as UTF-8.
func TestCollectPrefersValidUTF8(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	dst := filepath.Join(base, "meta")
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(`{"SeriesDescription":"头颅平扫"}`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testsupport.WriteText(t, filepath.Join(src, "1+SiteA", "001+Zhang", "a.json"), gbk)

	if _, err := newCollector(t, ingestConfig()).Collect(context.Background(), src, dst); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	tbl := testsupport.ReadTable(t, filepath.Join(dst, "001+Zhang"+sidecar.MetadataSuffix))
	if diff := cmp.Diff([]string{"\u0377\u00ad\u01bd\u0268"}, testsupport.Column(t, tbl, "SeriesDescription")); diff != "" {
		t.Fatalf("descriptions (-want +got):\n%s", diff)
	}
}

func TestCollectDICOMFailuresAreIssues(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	subject := filepath.Join(src, "1+SiteA", "001+Zhang")
	testsupport.WriteText(t, filepath.Join(subject, "a.json"), `{"SeriesInstanceUID":"1.2.3"}`)
	testsupport.WriteText(t, filepath.Join(subject, "dicom", "IM0001.dcm"), "not a dicom file")

	cfg := ingestConfig()
	cfg.IncludeDICOM = true
	result, err := newCollector(t, cfg).Collect(context.Background(), src, filepath.Join(base, "meta"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.Rows() != 1 {
		t.Fatalf("expected the JSON row only, got %d", result.Rows())
	}
	if result.Issues.Len() != 1 || result.Issues[0].Field != "dicom" {
		t.Fatalf("expected one dicom issue, got %v", result.Issues)
	}
}

func TestCollectMissingSource(t *testing.T) {
	_, err := newCollector(t, ingestConfig()).Collect(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	if !errors.Is(err, issues.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCollectHonorsCancellation(t *testing.T) {
	src := t.TempDir()
	testsupport.WriteText(t, filepath.Join(src, "1+SiteA", "001+Zhang", "a.json"), `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newCollector(t, ingestConfig()).Collect(ctx, src, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReadSidecarFallsBackThroughEncodings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	body, err := simplifiedchinese.GB18030.NewEncoder().String(`{"ProtocolName":"颅脑"}`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testsupport.WriteText(t, path, body)
	names, values, err := sidecar.ReadSidecar(path)
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if len(names) != 1 || values["ProtocolName"] != "颅脑" {
		t.Fatalf("unexpected sidecar %v %v", names, values)
	}
}
