package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mrimark/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
}

func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(homeDir, ".config", "mrimark", "config.toml"),
		stateDir:   filepath.Join(base, "state"),
	}
	// extra lands inside [history] unless it opens its own table.
	content := fmt.Sprintf("[paths]\nstate_dir = %q\nlog_dir = %q\n\n[history]\npath = %q\n%s",
		env.stateDir,
		filepath.Join(base, "logs"),
		filepath.Join(env.stateDir, "history.db"),
		extra,
	)
	testsupport.WriteText(t, env.configPath, content)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// writeSummaryTable writes a small ingested summary table and returns its path.
func writeSummaryTable(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "summary_metadata.csv")
	testsupport.WriteTable(t, path,
		[]string{"pid", "SeriesDescription", "ProtocolName", "Manufacturer", "SpacingBetweenSlices", "AcquisitionDateTime"},
		[]string{"P1", "t1_mprage_iso", "", "SIEMENS", "1.0", "2020-01-01T08:00:00"},
		[]string{"P1", "SWI_PHA_images", "", "SIEMENS", "", "2020-03-01T08:00:00"},
		[]string{"P1", "t2_tse_tra", "", "SIEMENS", "", "2020-09-01T08:00:00"},
		[]string{"P2", "Brain", "T1 AX", "TOSHIBA_MEC", "", "bad"},
	)
	return path
}
