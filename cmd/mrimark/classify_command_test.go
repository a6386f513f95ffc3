package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mrimark/internal/testsupport"
)

func TestClassifyCommandWritesTableAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := writeSummaryTable(t, env.baseDir)
	output := filepath.Join(env.baseDir, "labeled.csv")

	out, _, err := runCLI(t, []string{"classify", input, "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "Wrote "+output)
	requireContains(t, out, "3DT1")
	requireContains(t, out, "1 issue(s); see `mrimark history show")

	tbl := testsupport.ReadTable(t, output)
	if diff := cmp.Diff([]string{"3DT1", "SWI_Pha", "T2", "T1"}, testsupport.Column(t, tbl, "Label")); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"V1", "V1", "V2", "unparseable"}, testsupport.Column(t, tbl, "StudyRound")); diff != "" {
		t.Fatalf("rounds (-want +got):\n%s", diff)
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, input)

	var runs []runJSON
	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Records != 4 || runs[0].IssueCount != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history", "show", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "rounds")

	out, _, err = runCLI(t, []string{"history", "prune", "--keep", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 1 run(s)")
}

func TestClassifyCommandJSONAndOverrides(t *testing.T) {
	env := setupCLITestEnv(t, "enabled = false\n")
	input := writeSummaryTable(t, env.baseDir)

	out, _, err := runCLI(t, []string{"classify", input, "--json", "--policy", "thin_slice", "--label-column", "Marker"}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var report classifyJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Output != filepath.Join(env.baseDir, "summary_metadata_labeled.csv") {
		t.Fatalf("unexpected default output %q", report.Output)
	}
	if report.Recorded || report.Counts["3DT1"] != 1 || len(report.Passes) != 4 || len(report.Issues) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Issues[0].Kind != "data" || report.Issues[0].Stage != "rounds" {
		t.Fatalf("unexpected issue %+v", report.Issues[0])
	}
	tbl := testsupport.ReadTable(t, report.Output)
	if !tbl.Has("Marker") {
		t.Fatalf("expected Marker column, got %v", tbl.Header)
	}

	if _, _, err := runCLI(t, []string{"history", "list"}, env.configPath); err == nil {
		t.Fatal("history should be unavailable when disabled")
	}

	out, _, err = runCLI(t, []string{"classify", input, "-o", filepath.Join(env.baseDir, "plain.csv")}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "1 issue(s); rerun with --json")
	if strings.Contains(out, "history show") {
		t.Fatalf("history hint printed with history disabled: %q", out)
	}
}

func TestClassifyCommandRejectsBadPolicy(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := writeSummaryTable(t, env.baseDir)
	if _, _, err := runCLI(t, []string{"classify", input, "--policy", "thick"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
