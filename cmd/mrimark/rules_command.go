package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mrimark/internal/rules"
	"mrimark/internal/series"
)

type ruleRow struct {
	Rank    int    `json:"rank"`
	Label   string `json:"label"`
	Field   string `json:"field"`
	Pattern string `json:"pattern"`
}

type fallbackJSON struct {
	Vendor string    `json:"vendor"`
	Field  string    `json:"field"`
	Rules  []ruleRow `json:"rules"`
}

type rulesJSON struct {
	Digest    string         `json:"digest"`
	Rules     []ruleRow      `json:"rules"`
	Fallbacks []fallbackJSON `json:"fallbacks"`
}

func newRulesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule table, highest precedence first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			set, err := cfg.RuleSet()
			if err != nil {
				return err
			}
			view := rulesView(set)
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			headers := []string{"Rank", "Label", "Field", "Pattern"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintf(out, "Rules %s\n", view.Digest)
			fmt.Fprintln(out, renderTable(headers, ruleRows(view.Rules), aligns, colorize))
			for _, fb := range view.Fallbacks {
				fmt.Fprintf(out, "\nFallback for %s (unlabeled series, matched on %s)\n", fb.Vendor, fb.Field)
				fmt.Fprintln(out, renderTable(headers, ruleRows(fb.Rules), aligns, colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the rule table as JSON")
	return cmd
}

// rulesView lists the label-assignment rules in the order they take effect:
// delete overrides beat "Others" overrides, which beat the table, where
// later entries beat earlier ones.
func rulesView(set rules.Set) rulesJSON {
	description := series.ColumnSeriesDescription
	view := rulesJSON{Digest: set.Digest(), Rules: []ruleRow{}, Fallbacks: []fallbackJSON{}}
	add := func(label, field string, p rules.Pattern) {
		if !p.Enabled() {
			return
		}
		view.Rules = append(view.Rules, ruleRow{Label: label, Field: field, Pattern: p.String()})
	}

	add(rules.LabelDelete, series.ColumnManufacturer, set.ManufacturerDelete)
	add(rules.LabelDelete, description+", "+series.ColumnProtocolName, set.Delete)
	add(rules.LabelOthers, description, set.Others)
	add(rules.LabelOthers, series.ColumnProtocolName, set.ProtocolOthers)
	add(rules.LabelOthers, description+" (case-sensitive)", set.UppercaseOthers)
	if len(set.OthersExact) > 0 {
		view.Rules = append(view.Rules, ruleRow{
			Label:   rules.LabelOthers,
			Field:   description + " (exact)",
			Pattern: strings.Join(set.OthersExact, " | "),
		})
	}
	view.Rules = append(view.Rules, tableRows(set.Sequence, description)...)
	rank(view.Rules)

	for _, fb := range set.Fallbacks {
		rows := tableRows(fb.Table, fb.Field)
		rank(rows)
		view.Fallbacks = append(view.Fallbacks, fallbackJSON{Vendor: fb.Vendor, Field: fb.Field, Rules: rows})
	}
	return view
}

func tableRows(t rules.Table, field string) []ruleRow {
	entries := t.Entries()
	rows := make([]ruleRow, 0, len(entries))
	for _, entry := range slices.Backward(entries) {
		rows = append(rows, ruleRow{Label: entry.Label, Field: field, Pattern: entry.Pattern})
	}
	return rows
}

func rank(rows []ruleRow) {
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

func ruleRows(rows []ruleRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{strconv.Itoa(r.Rank), r.Label, r.Field, r.Pattern})
	}
	return out
}
