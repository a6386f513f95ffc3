package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mrimark/internal/issues"
	"mrimark/internal/marker"
	"mrimark/internal/workflow"
)

type classifyJSON struct {
	RunID       string         `json:"run_id"`
	Input       string         `json:"input"`
	Output      string         `json:"output"`
	Records     int            `json:"records"`
	Unlabeled   int            `json:"unlabeled"`
	Counts      map[string]int `json:"counts"`
	Rounds      map[string]int `json:"rounds_per_subject"`
	Passes      []passJSON     `json:"passes"`
	Issues      []issueJSON    `json:"issues"`
	RulesDigest string         `json:"rules_digest"`
	Duration    string         `json:"duration"`
	Recorded    bool           `json:"recorded"`
}

type passJSON struct {
	Name    string `json:"name"`
	Changed int    `json:"changed"`
}

type issueJSON struct {
	Row     int    `json:"row"`
	PID     string `json:"pid,omitempty"`
	Stage   string `json:"stage"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath  string
		labelColumn string
		policy      string
		keepLabels  bool
		swiMag      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "classify <table.csv>",
		Short: "Label every series in a metadata table and assign study rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("label-column") {
				cfg.Table.LabelColumn = strings.TrimSpace(labelColumn)
			}
			if cmd.Flags().Changed("keep-labels") {
				cfg.Table.KeepLabels = keepLabels
			}
			if cmd.Flags().Changed("policy") {
				cfg.Refine.T1ThreeDPolicy = policy
			}
			if cmd.Flags().Changed("swi-magnitude") {
				cfg.Refine.SWIMagnitude = swiMag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			var recorder workflow.Recorder
			if store != nil {
				defer store.Close()
				recorder = store
			}

			input := args[0]
			output := strings.TrimSpace(outputPath)
			if output == "" {
				output = defaultClassifyOutput(input)
			}

			classifier, err := workflow.NewClassifier(cfg, recorder, logger)
			if err != nil {
				return err
			}
			report, err := classifier.Classify(cmd.Context(), input, output)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, classifyReportJSON(report))
			}
			printClassifyReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the labeled table here (default <input>_labeled.csv)")
	cmd.Flags().StringVar(&labelColumn, "label-column", "", "Column that receives the label")
	cmd.Flags().StringVar(&policy, "policy", "", fmt.Sprintf("3D-T1 spacing policy (%s or %s)", marker.SpacingLiteral, marker.SpacingThinSlice))
	cmd.Flags().BoolVar(&keepLabels, "keep-labels", false, "Seed labels from the existing label column")
	cmd.Flags().BoolVar(&swiMag, "swi-magnitude", false, "Label SWI magnitude images as SWI_Mag")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run report as JSON")
	return cmd
}

func defaultClassifyOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_labeled" + ext
}

func printClassifyReport(cmd *cobra.Command, report workflow.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run %s\n", report.RunID)
	fmt.Fprintf(out, "Wrote %s (%d records, %d unlabeled) in %s\n\n",
		report.Output, report.Records, report.Unlabeled, report.Duration().Round(time.Millisecond))

	rows := make([][]string, 0, len(report.Counts)+1)
	for _, label := range report.Labels() {
		rows = append(rows, []string{label, strconv.Itoa(report.Counts[label])})
	}
	if report.Unlabeled > 0 {
		rows = append(rows, []string{"(unlabeled)", strconv.Itoa(report.Unlabeled)})
	}
	fmt.Fprintln(out, renderTable([]string{"Label", "Series"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))

	passRows := make([][]string, 0, len(report.Passes))
	for _, pass := range report.Passes {
		passRows = append(passRows, []string{pass.Name, strconv.Itoa(pass.Changed)})
	}
	fmt.Fprintln(out, renderTable([]string{"Pass", "Changed"}, passRows, []columnAlignment{alignLeft, alignRight}, colorize))

	switch n := report.Issues.Len(); {
	case n > 0 && report.Recorded:
		fmt.Fprintf(out, "%d issue(s); see `mrimark history show %s`\n", n, shortID(report.RunID))
	case n > 0:
		fmt.Fprintf(out, "%d issue(s); rerun with --json to list them\n", n)
	}
}

func classifyReportJSON(report workflow.Report) classifyJSON {
	out := classifyJSON{
		RunID:       report.RunID,
		Input:       report.Input,
		Output:      report.Output,
		Records:     report.Records,
		Unlabeled:   report.Unlabeled,
		Counts:      report.Counts,
		Rounds:      report.RoundCount,
		RulesDigest: report.RulesDigest,
		Duration:    report.Duration().String(),
		Recorded:    report.Recorded,
		Passes:      []passJSON{},
		Issues:      []issueJSON{},
	}
	for _, pass := range report.Passes {
		out.Passes = append(out.Passes, passJSON{Name: pass.Name, Changed: pass.Changed})
	}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, issueToJSON(issue))
	}
	return out
}

func issueToJSON(issue issues.Issue) issueJSON {
	out := issueJSON{
		Row:   issue.Row,
		PID:   issue.PID,
		Stage: issue.Stage,
		Field: issue.Field,
		Value: issue.Value,
		Kind:  issues.Kind(issue.Err),
	}
	if issue.Err != nil {
		out.Message = issue.Err.Error()
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
