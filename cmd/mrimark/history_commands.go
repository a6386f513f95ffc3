package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mrimark/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded classify runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				out := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					out = append(out, toRunJSON(run))
				}
				return writeJSON(cmd, out)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.Started.Local().Format("2006-01-02 15:04:05"),
					strconv.Itoa(run.Records),
					strconv.Itoa(run.Unlabeled),
					strconv.Itoa(run.IssueCount),
					run.Input,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Records", "Unlabeled", "Issues", "Input"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's label counts and issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, toRunJSON(run))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Run:       %s\n", run.ID)
			fmt.Fprintf(out, "Input:     %s\n", run.Input)
			fmt.Fprintf(out, "Output:    %s\n", run.Output)
			fmt.Fprintf(out, "Started:   %s\n", run.Started.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Duration:  %s\n", run.Finished.Sub(run.Started).Round(time.Millisecond))
			fmt.Fprintf(out, "Rules:     %s\n", run.RulesDigest)
			fmt.Fprintf(out, "Records:   %d (%d unlabeled)\n\n", run.Records, run.Unlabeled)

			labels := slices.Sorted(maps.Keys(run.Counts))
			rows := make([][]string, 0, len(labels))
			for _, label := range labels {
				rows = append(rows, []string{label, strconv.Itoa(run.Counts[label])})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Label", "Series"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
			}

			if len(run.Issues) == 0 {
				fmt.Fprintln(out, "No issues")
				return nil
			}
			issueRows := make([][]string, 0, len(run.Issues))
			for _, issue := range run.Issues {
				issueRows = append(issueRows, []string{
					strconv.Itoa(issue.Row),
					issue.PID,
					issue.Stage,
					issue.Field,
					issue.Value,
					issue.Kind,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Row", "PID", "Stage", "Field", "Value", "Kind"},
				issueRows,
				[]columnAlignment{alignRight},
				colorize,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative, got %d", keep)
			}
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s); kept the newest %d\n", removed, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of most recent runs to keep")
	return cmd
}

type runJSON struct {
	ID          string         `json:"id"`
	Input       string         `json:"input"`
	Output      string         `json:"output"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
	Records     int            `json:"records"`
	Unlabeled   int            `json:"unlabeled"`
	IssueCount  int            `json:"issue_count"`
	RulesDigest string         `json:"rules_digest"`
	Counts      map[string]int `json:"counts,omitempty"`
	Issues      []issueJSON    `json:"issues,omitempty"`
}

func toRunJSON(run history.Run) runJSON {
	out := runJSON{
		ID:          run.ID,
		Input:       run.Input,
		Output:      run.Output,
		Started:     run.Started,
		Finished:    run.Finished,
		Records:     run.Records,
		Unlabeled:   run.Unlabeled,
		IssueCount:  run.IssueCount,
		RulesDigest: run.RulesDigest,
		Counts:      run.Counts,
	}
	for _, issue := range run.Issues {
		out.Issues = append(out.Issues, issueJSON{
			Row:     issue.Row,
			PID:     issue.PID,
			Stage:   issue.Stage,
			Field:   issue.Field,
			Value:   issue.Value,
			Kind:    issue.Kind,
			Message: issue.Message,
		})
	}
	return out
}
