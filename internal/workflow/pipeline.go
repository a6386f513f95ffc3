package workflow

import (
	"context"
	"log/slog"

	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/marker"
	"mrimark/internal/rounds"
	"mrimark/internal/series"
)

// PassResult records how many labels one pass changed.
type PassResult struct {
	Name    string
	Changed int
}

// Result is the outcome of running the pipeline over a record set.
type Result struct {
	Passes []PassResult
	Issues issues.List
}

// Pipeline applies the labeling passes and round segmentation.
type Pipeline struct {
	marker    *marker.Marker
	segmenter rounds.Segmenter
	logger    *slog.Logger
}

// NewPipeline builds a pipeline from a compiled marker and a segmenter.
func NewPipeline(m *marker.Marker, segmenter rounds.Segmenter, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		marker:    m,
		segmenter: segmenter,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run labels records in place and fills their study date and round. The
// context is checked between passes only.
func (p *Pipeline) Run(ctx context.Context, records []series.Record) (Result, error) {
	var result Result
	for _, pass := range p.marker.Passes() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		changed := 0
		for i := range records {
			next := pass.Apply(records[i])
			if next != records[i].Label {
				records[i].Label = next
				changed++
			}
		}
		result.Passes = append(result.Passes, PassResult{Name: pass.Name, Changed: changed})
		logging.WithContext(logging.WithPass(ctx, pass.Name), p.logger).Info("pass complete",
			logging.Int("records", len(records)),
			logging.Int("changed", changed),
		)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	roundIssues := p.segmenter.Assign(records)
	logger := logging.WithContext(logging.WithPass(ctx, rounds.Stage), p.logger)
	for _, issue := range roundIssues {
		logging.Warn(logger, "round_unparseable", "study date unreadable; round marked unparseable",
			logging.Int(logging.FieldRow, issue.Row),
			logging.String(logging.FieldPID, issue.PID),
			logging.String("value", issue.Value),
		)
	}
	logger.Info("rounds assigned",
		logging.Int("records", len(records)),
		logging.Int("unparseable", roundIssues.Len()),
	)
	result.Issues.Extend(roundIssues)
	return result, nil
}
