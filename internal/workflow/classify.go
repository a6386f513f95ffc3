package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mrimark/internal/config"
	"mrimark/internal/history"
	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/series"
	"mrimark/internal/table"
)

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Classifier labels a metadata table file.
type Classifier struct {
	pipeline *Pipeline
	load     series.LoadOptions
	digest   string
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewClassifier compiles the configured rules. recorder may be nil.
func NewClassifier(cfg *config.Config, recorder Recorder, logger *slog.Logger) (*Classifier, error) {
	m, err := cfg.Marker()
	if err != nil {
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "classify")
	return &Classifier{
		pipeline: NewPipeline(m, cfg.Segmenter(), logger),
		load: series.LoadOptions{
			LabelColumn: cfg.Table.LabelColumn,
			KeepLabels:  cfg.Table.KeepLabels,
		},
		digest:   m.Rules().Digest(),
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Classify reads input, labels every record, and writes the annotated table
// to output. Per-record problems are returned on the report; the error is
// reserved for failures that stop the whole run.
func (c *Classifier) Classify(ctx context.Context, input, output string) (Report, error) {
	report := Report{
		RunID:       uuid.NewString(),
		Input:       input,
		Output:      output,
		Started:     c.now(),
		RulesDigest: c.digest,
	}
	if strings.TrimSpace(output) == "" {
		return report, issues.Wrap(issues.ErrConfiguration, "classify", "output", "output path is required", nil)
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("classify started", logging.String("input", input), logging.String("rules", c.digest))

	t, err := table.ReadFile(input)
	if err != nil {
		return report, err
	}
	records, loadIssues, err := series.Load(t, c.load)
	if err != nil {
		return report, err
	}
	for _, issue := range loadIssues {
		logging.Warn(logger, "cell_unreadable", "cell unreadable; treated as missing",
			logging.Int(logging.FieldRow, issue.Row),
			logging.String(logging.FieldPID, issue.PID),
			logging.String("field", issue.Field),
			logging.String("value", issue.Value),
		)
	}
	report.Issues.Extend(loadIssues)

	result, err := c.pipeline.Run(ctx, records)
	if err != nil {
		return report, err
	}
	report.Passes = result.Passes
	report.Issues.Extend(result.Issues)

	series.Store(t, records, c.load.LabelColumn)
	if err := table.WriteFile(output, t); err != nil {
		return report, err
	}

	report.Records = len(records)
	report.Counts, report.Unlabeled, report.RoundCount = tally(records)
	report.Finished = c.now()

	logger.Info("classify complete",
		logging.String("output", output),
		logging.Int("records", report.Records),
		logging.Int("unlabeled", report.Unlabeled),
		logging.Int("issues", report.Issues.Len()),
		logging.Duration("elapsed", report.Duration()),
	)

	if c.recorder != nil {
		if err := c.recorder.RecordRun(ctx, report.HistoryRun()); err != nil {
			logging.Warn(logger, "history_write_failed", "run history not saved",
				logging.Error(err),
			)
		} else {
			report.Recorded = true
		}
	}
	return report, nil
}

// HistoryRun converts the report into its stored form.
func (r Report) HistoryRun() history.Run {
	run := history.Run{
		ID:          r.RunID,
		Input:       r.Input,
		Output:      r.Output,
		Started:     r.Started,
		Finished:    r.Finished,
		Records:     r.Records,
		Unlabeled:   r.Unlabeled,
		IssueCount:  r.Issues.Len(),
		RulesDigest: r.RulesDigest,
		Counts:      r.Counts,
	}
	for _, issue := range r.Issues {
		stored := history.Issue{
			Row:   issue.Row,
			PID:   issue.PID,
			Stage: issue.Stage,
			Field: issue.Field,
			Value: issue.Value,
			Kind:  issues.Kind(issue.Err),
		}
		if issue.Err != nil {
			stored.Message = issue.Err.Error()
		}
		run.Issues = append(run.Issues, stored)
	}
	return run
}
