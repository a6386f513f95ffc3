package placement

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/flock"

	"mrimark/internal/config"
	"mrimark/internal/fileutil"
	"mrimark/internal/issues"
	"mrimark/internal/logging"
	"mrimark/internal/rounds"
	"mrimark/internal/rules"
	"mrimark/internal/series"
	"mrimark/internal/sidecar"
	"mrimark/internal/table"
	"mrimark/internal/textutil"
)

const (
	stagePlace = "place"

	// LockFileName is created in the destination root while placing.
	LockFileName = ".mrimark.lock"
)

// Action is what happened to a series.
type Action string

const (
	ActionCopy    Action = "copy"
	ActionMove    Action = "move"
	ActionSkipped Action = "skipped"
)

// Placement is the outcome for one series.
type Placement struct {
	Series Series
	Row    int
	Label  string
	Round  string
	Dir    string
	Stem   string
	Action Action
}

// Result summarizes a placement run.
type Result struct {
	Placed  []Placement
	Skipped []Placement
	Issues  issues.List
	DryRun  bool
}

// Placer moves classified series into the output tree.
type Placer struct {
	pattern      *regexp.Regexp
	fields       []string
	mode         string
	idPrefix     string
	skipDeleted  bool
	unlabeledDir string
	labelColumn  string
	logger       *slog.Logger
}

// NewPlacer builds a placer from the placement and table settings.
func NewPlacer(cfg *config.Config, logger *slog.Logger) (*Placer, error) {
	pattern, err := regexp.Compile(cfg.Placement.SubjectPattern)
	if err != nil {
		return nil, issues.Wrap(issues.ErrConfiguration, stagePlace, "subject pattern", cfg.Placement.SubjectPattern, err)
	}
	return &Placer{
		pattern:      pattern,
		fields:       append([]string(nil), cfg.Placement.MatchFields...),
		mode:         cfg.Placement.Mode,
		idPrefix:     cfg.Placement.IDPrefix,
		skipDeleted:  cfg.Placement.SkipDeleted,
		unlabeledDir: cfg.Placement.UnlabeledDir,
		labelColumn:  cfg.Table.LabelColumn,
		logger:       logging.NewComponentLogger(logger, "place"),
	}, nil
}

// Place joins every series below source to the classified table at
// tablePath and copies or moves it under dst. With dryRun set nothing is
// written; the returned result shows what would happen.
func (p *Placer) Place(ctx context.Context, source, tablePath, dst string, dryRun bool) (Result, error) {
	result := Result{DryRun: dryRun}
	t, err := table.ReadFile(tablePath)
	if err != nil {
		return result, err
	}
	for _, col := range []string{p.labelColumn, series.ColumnStudyRound, series.ColumnStudyDate} {
		if !t.Has(col) {
			return result, issues.Wrap(issues.ErrData, stagePlace, "read table", fmt.Sprintf("column %q missing; run classify first", col), nil)
		}
	}
	subjects, err := discoverSubjects(source, p.pattern)
	if err != nil {
		return result, err
	}
	action := p.action(source, dst)

	if !dryRun {
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return result, issues.Wrap(issues.ErrIO, stagePlace, "create destination", dst, err)
		}
		lock := flock.New(filepath.Join(dst, LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return result, issues.Wrap(issues.ErrIO, stagePlace, "acquire lock", dst, err)
		}
		if !ok {
			return result, issues.Wrap(issues.ErrIO, stagePlace, "acquire lock", "another placement is writing "+dst, nil)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				p.logger.Warn("failed to release destination lock", logging.Error(err))
			}
			_ = os.Remove(lock.Path())
		}()
	}

	j := joiner{t: t, fields: p.fields}
	sampler := logging.NewProgressSampler(10)
	for i, subject := range subjects {
		logger := p.logger.With(logging.String("site", subject.site), logging.String(logging.FieldPID, subject.subject))
		for _, s := range discoverSeries(subject) {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			placed, err := p.placeOne(s, j, dst, action, dryRun)
			if err != nil {
				result.Issues.Add(issues.Issue{Row: placed.Row, PID: s.Subject, Stage: stagePlace, Field: "series", Value: s.Image(), Err: err})
				logging.Warn(logger, "series_unplaced", "series not placed",
					logging.String("image", s.Image()),
					logging.Error(err),
				)
				continue
			}
			if placed.Action == ActionSkipped {
				result.Skipped = append(result.Skipped, placed)
				logger.Debug("series skipped", logging.String("image", s.Image()), logging.String("label", placed.Label))
				continue
			}
			result.Placed = append(result.Placed, placed)
		}
		if sampler.ShouldLog(i+1, len(subjects)) {
			p.logger.Info("place progress",
				logging.Int("done", i+1),
				logging.Int("total", len(subjects)),
			)
		}
	}

	p.logger.Info("place complete",
		logging.String("destination", dst),
		logging.String("action", string(action)),
		logging.Bool("dry_run", dryRun),
		logging.Int("placed", len(result.Placed)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("issues", result.Issues.Len()),
	)
	return result, nil
}

// action resolves the configured mode. Auto copies into a separate tree and
// moves when the destination is the source itself.
func (p *Placer) action(source, dst string) Action {
	switch p.mode {
	case config.PlacementModeCopy:
		return ActionCopy
	case config.PlacementModeMove:
		return ActionMove
	default:
		if fileutil.SamePath(source, dst) {
			return ActionMove
		}
		return ActionCopy
	}
}

func (p *Placer) placeOne(s Series, j joiner, dst string, action Action, dryRun bool) (Placement, error) {
	placed := Placement{Series: s, Row: -1}
	if !fileutil.Exists(s.Sidecar()) {
		return placed, issues.Wrap(issues.ErrNotFound, stagePlace, "find sidecar", s.Sidecar(), nil)
	}
	_, meta, err := sidecar.ReadSidecar(s.Sidecar(), textutil.SidecarEncodings...)
	if err != nil {
		return placed, err
	}
	if len(meta) == 0 {
		return placed, issues.Wrap(issues.ErrData, stagePlace, "read sidecar", "sidecar is empty", nil)
	}
	row, ok := j.find(meta)
	if !ok {
		return placed, issues.Wrap(issues.ErrNotFound, stagePlace, "join", "no classified row matches the sidecar", nil)
	}

	placed.Row = row
	placed.Label = j.t.Value(row, p.labelColumn)
	placed.Round = j.t.Value(row, series.ColumnStudyRound)
	if placed.Label == rules.LabelDelete && p.skipDeleted {
		placed.Action = ActionSkipped
		return placed, nil
	}
	labelDir := placed.Label
	if labelDir == "" {
		labelDir = p.unlabeledDir
	}
	placed.Stem = FileStem(placed.Round, j.t.Value(row, series.ColumnStudyDate), meta["SeriesNumber"], labelDir)
	placed.Dir = filepath.Join(dst, s.Site, SubjectID(p.idPrefix, s.Site, s.Subject), textutil.SanitizeFileName(roundDir(placed.Round)), textutil.SanitizeFileName(labelDir))
	placed.Action = action
	if dryRun {
		return placed, nil
	}

	if err := os.MkdirAll(placed.Dir, 0o755); err != nil {
		return placed, issues.Wrap(issues.ErrIO, stagePlace, "create directory", placed.Dir, err)
	}
	for _, f := range s.Files() {
		target := filepath.Join(placed.Dir, placed.Stem+f.Ext)
		var err error
		if action == ActionMove {
			err = fileutil.MoveFile(f.Path, target)
		} else {
			err = fileutil.CopyFileVerified(f.Path, target)
		}
		if err != nil {
			return placed, issues.Wrap(issues.ErrIO, stagePlace, string(action), f.Path, err)
		}
	}
	return placed, nil
}

func roundDir(round string) string {
	if round == "" {
		return rounds.Unparseable
	}
	return round
}
