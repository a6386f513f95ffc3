package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mrimark/internal/series"
)

type explainStep struct {
	Pass  string `json:"pass"`
	Label string `json:"label"`
}

type explainJSON struct {
	Description string        `json:"description"`
	Matches     []ruleRow     `json:"matches"`
	Steps       []explainStep `json:"steps"`
	Policy      string        `json:"t1_3d_policy"`
	Label       string        `json:"label"`
}

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var (
		rec        series.Record
		spacing    string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how a single series would be labeled, pass by pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(spacing) != "" {
				value, err := series.ParseSpacing(spacing)
				if err != nil {
					return err
				}
				rec.SpacingBetweenSlices = value
			}
			m, err := cfg.Marker()
			if err != nil {
				return err
			}

			view := explainJSON{Description: rec.Description(), Matches: []ruleRow{}, Policy: string(m.Policy())}
			for i, match := range m.Rules().Sequence.Matches(rec.Description()) {
				view.Matches = append(view.Matches, ruleRow{Rank: i + 1, Label: match.Label, Field: series.ColumnSeriesDescription, Pattern: match.Pattern})
			}
			traced := rec
			for _, pass := range m.Passes() {
				traced.Label = pass.Apply(traced)
				view.Steps = append(view.Steps, explainStep{Pass: pass.Name, Label: traced.Label})
			}
			view.Label = m.Classify(rec)

			if jsonOutput {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Text matched: %q\n", view.Description)
			if len(view.Matches) == 0 {
				fmt.Fprintln(out, "No table entry matches")
			} else {
				rows := make([][]string, 0, len(view.Matches))
				for _, match := range view.Matches {
					rows = append(rows, []string{strconv.Itoa(match.Rank), match.Label, match.Pattern})
				}
				fmt.Fprintln(out, renderTable([]string{"Rank", "Label", "Pattern"}, rows, []columnAlignment{alignRight}, colorize))
			}
			steps := make([][]string, 0, len(view.Steps))
			for _, step := range view.Steps {
				steps = append(steps, []string{step.Pass, displayLabel(step.Label)})
			}
			fmt.Fprintln(out, renderTable([]string{"Pass", "Label"}, steps, nil, colorize))
			fmt.Fprintf(out, "3D-T1 policy: %s\n", view.Policy)
			fmt.Fprintf(out, "Final label: %s\n", displayLabel(view.Label))
			return nil
		},
	}
	cmd.Flags().StringVarP(&rec.SeriesDescription, "description", "d", "", "SeriesDescription value")
	cmd.Flags().StringVarP(&rec.ProtocolName, "protocol", "p", "", "ProtocolName value")
	cmd.Flags().StringVarP(&rec.Manufacturer, "manufacturer", "m", "", "Manufacturer value")
	cmd.Flags().StringVar(&spacing, "spacing", "", "SpacingBetweenSlices value")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the explanation as JSON")
	return cmd
}

func displayLabel(label string) string {
	if label == "" {
		return "(unlabeled)"
	}
	return label
}
