package sidecar

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/table"
)

// SummaryFileName is the merged table written by Summarize.
const SummaryFileName = "summary_metadata.csv"

// Summary describes a merged metadata table.
type Summary struct {
	Path    string
	Inputs  []string
	Rows    int
	Columns int
	Dropped []string
}

// Summarize concatenates every CSV in dir whose file name matches naming,
// drops columns filled in fewer than minFill of the rows and writes
// summary_metadata.csv into dir.
func Summarize(dir string, naming Naming, minFill float64, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "summarize")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, issues.Wrap(issues.ErrNotFound, "summarize", "read directory", dir, err)
	}

	var inputs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".csv" || name == SummaryFileName {
			continue
		}
		if naming.Matches(name) {
			inputs = append(inputs, filepath.Join(dir, name))
		}
	}
	slices.Sort(inputs)
	if len(inputs) == 0 {
		return Summary{}, issues.Wrap(issues.ErrNotFound, "summarize", "collect tables", fmt.Sprintf("no CSV in %s matches %s", dir, naming.Pattern()), nil)
	}

	tables := make([]*table.Table, 0, len(inputs))
	for _, path := range inputs {
		t, err := table.ReadFile(path)
		if err != nil {
			return Summary{}, err
		}
		tables = append(tables, t)
	}
	merged := table.Concat(tables...)
	dropped := merged.DropSparse(minFill)

	out := filepath.Join(dir, SummaryFileName)
	if err := table.WriteFile(out, merged); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Path:    out,
		Inputs:  inputs,
		Rows:    merged.Len(),
		Columns: len(merged.Header),
		Dropped: dropped,
	}
	logger.Info("summary written",
		logging.String("path", out),
		logging.Int("inputs", len(inputs)),
		logging.Int("rows", summary.Rows),
		logging.Int("columns", summary.Columns),
		logging.Int("dropped_columns", len(dropped)),
	)
	return summary, nil
}
