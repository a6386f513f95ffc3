package history

import (
	"context"
	"fmt"
	"time"

	"mrimark/internal/issues"
)

// RecordRun stores run, its label counts and its issues in one transaction.
// IssueCount is derived from run.Issues when left at zero.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	ctx = ensureContext(ctx)
	if run.ID == "" {
		return issues.Wrap(issues.ErrData, "history", "record run", "run id is empty", nil)
	}
	if run.IssueCount == 0 {
		run.IssueCount = len(run.Issues)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, input_path, output_path, started_at, finished_at, records, unlabeled, issue_count, rules_digest)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Input, run.Output,
			run.Started.UTC().Format(timeLayout), run.Finished.UTC().Format(timeLayout),
			run.Records, run.Unlabeled, run.IssueCount, run.RulesDigest,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for label, count := range run.Counts {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO label_counts (run_id, label, count) VALUES (?, ?, ?)",
				run.ID, label, count,
			); err != nil {
				return fmt.Errorf("insert label count: %w", err)
			}
		}
		for _, issue := range run.Issues {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_issues (run_id, row_index, pid, stage, field, value, kind, message)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, issue.Row, issue.PID, issue.Stage, issue.Field, issue.Value, issue.Kind, issue.Message,
			); err != nil {
				return fmt.Errorf("insert issue: %w", err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = "id, input_path, output_path, started_at, finished_at, records, unlabeled, issue_count, rules_digest"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	if err := row.Scan(&run.ID, &run.Input, &run.Output, &started, &finished,
		&run.Records, &run.Unlabeled, &run.IssueCount, &run.RulesDigest); err != nil {
		return Run{}, err
	}
	var err error
	if run.Started, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.Finished, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

// Runs returns up to limit runs, newest first, with their label counts. A
// non-positive limit returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Counts, err = s.counts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Run returns one run with its label counts and issues. A run id prefix is
// accepted when it is unambiguous.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	if id == "" {
		return Run{}, issues.Wrap(issues.ErrNotFound, "history", "get run", "empty run id", nil)
	}
	// Prefixes compare literally; LIKE would treat % and _ as wildcards.
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY id = ? DESC LIMIT 2",
		id, id, id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return Run{}, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, err
	}

	switch {
	case len(matches) == 0:
		return Run{}, issues.Wrap(issues.ErrNotFound, "history", "get run", fmt.Sprintf("no run %q", id), nil)
	case len(matches) > 1 && matches[0].ID != id:
		return Run{}, issues.Wrap(issues.ErrData, "history", "get run", fmt.Sprintf("run id prefix %q is ambiguous", id), nil)
	}

	run := matches[0]
	if run.Counts, err = s.counts(ctx, run.ID); err != nil {
		return Run{}, err
	}
	if run.Issues, err = s.Issues(ctx, run.ID); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) counts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT label, count FROM label_counts WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("list label counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			label string
			count int
		)
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		counts[label] = count
	}
	return counts, rows.Err()
}

// Issues returns the issues stored for runID in row order.
func (s *Store) Issues(ctx context.Context, runID string) ([]Issue, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, pid, stage, field, value, kind, message
		 FROM run_issues WHERE run_id = ? ORDER BY row_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()
	var out []Issue
	for rows.Next() {
		var issue Issue
		if err := rows.Scan(&issue.Row, &issue.PID, &issue.Stage, &issue.Field, &issue.Value, &issue.Kind, &issue.Message); err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	ctx = ensureContext(ctx)
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
			)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(removed), nil
}
