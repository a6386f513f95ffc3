package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mrimark/internal/sidecar"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		pattern     string
		splitChar   string
		withDICOM   bool
		noSummarize bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <source> <dest>",
		Short: "Collect per-subject sidecar metadata into CSV tables",
		Long: "Walks <source>/<site>/<subject>/ for JSON sidecars, writes <dest>/<subject>_metadata.csv " +
			"for every subject whose directory name matches the subject pattern, then merges them into " +
			"<dest>/" + sidecar.SummaryFileName + ".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings := cfg.Ingest
			if cmd.Flags().Changed("pattern") {
				settings.SubjectPattern = pattern
			}
			if cmd.Flags().Changed("split-char") {
				settings.SplitChar = splitChar
			}
			if cmd.Flags().Changed("dicom") {
				settings.IncludeDICOM = withDICOM
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			collector, err := sidecar.NewCollector(settings, logger)
			if err != nil {
				return err
			}
			result, err := collector.Collect(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(result.Subjects))
			for _, s := range result.Subjects {
				rows = append(rows, []string{s.Site, s.Subject, strconv.Itoa(s.Rows)})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Site", "Subject", "Series"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}, shouldColorize(out)))
			}
			fmt.Fprintf(out, "Collected %d series from %d subject(s); %d directories skipped, %d file(s) unreadable\n",
				result.Rows(), len(result.Subjects), len(result.Skipped), result.Issues.Len())
			if noSummarize || len(result.Subjects) == 0 {
				return nil
			}

			naming, err := sidecar.NewNaming(settings.SubjectPattern, settings.SplitChar)
			if err != nil {
				return err
			}
			summary, err := sidecar.Summarize(args[1], naming, settings.MinColumnFill, logger)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Subject directory pattern (overrides ingest.subject_pattern)")
	cmd.Flags().StringVar(&splitChar, "split-char", "", "Subject name split character (overrides ingest.split_char)")
	cmd.Flags().BoolVar(&withDICOM, "dicom", false, "Also read .dcm headers for series without a JSON sidecar")
	cmd.Flags().BoolVar(&noSummarize, "no-summary", false, "Skip writing "+sidecar.SummaryFileName)
	return cmd
}

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var (
		pattern string
		minFill float64
	)
	cmd := &cobra.Command{
		Use:   "summarize <dir>",
		Short: "Merge per-subject metadata tables into " + sidecar.SummaryFileName,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings := cfg.Ingest
			if cmd.Flags().Changed("pattern") {
				settings.SubjectPattern = pattern
			}
			if cmd.Flags().Changed("min-fill") {
				if minFill < 0 || minFill > 1 {
					return fmt.Errorf("--min-fill must be between 0 and 1, got %v", minFill)
				}
				settings.MinColumnFill = minFill
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			naming, err := sidecar.NewNaming(settings.SubjectPattern, settings.SplitChar)
			if err != nil {
				return err
			}
			summary, err := sidecar.Summarize(args[0], naming, settings.MinColumnFill, logger)
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "File name pattern (overrides ingest.subject_pattern)")
	cmd.Flags().Float64Var(&minFill, "min-fill", 0, "Drop columns filled in fewer than this share of rows")
	return cmd
}

func printSummary(cmd *cobra.Command, summary sidecar.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s: %d rows, %d columns from %d table(s)\n",
		summary.Path, summary.Rows, summary.Columns, len(summary.Inputs))
	if len(summary.Dropped) > 0 {
		fmt.Fprintf(out, "Dropped sparse columns: %s\n", strings.Join(summary.Dropped, ", "))
	}
}
