package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mrimark/internal/config"
	"mrimark/internal/placement"
)

func newPlaceCommand(ctx *commandContext) *cobra.Command {
	var (
		mode   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "place <source> <labeled.csv> <dest>",
		Short: "Copy or move converted series into the labeled output tree",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				cfg.Placement.Mode = strings.ToLower(strings.TrimSpace(mode))
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			placer, err := placement.NewPlacer(cfg, logger)
			if err != nil {
				return err
			}
			result, err := placer.Place(cmd.Context(), args[0], args[1], args[2], dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				rows := make([][]string, 0, len(result.Placed))
				for _, p := range result.Placed {
					rel, relErr := filepath.Rel(args[2], p.Dir)
					if relErr != nil {
						rel = p.Dir
					}
					rows = append(rows, []string{string(p.Action), filepath.Base(p.Series.Image()), filepath.Join(rel, p.Stem)})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Action", "Image", "Destination"}, rows, nil, shouldColorize(out)))
				}
			}
			verb := "Placed"
			if dryRun {
				verb = "Would place"
			}
			fmt.Fprintf(out, "%s %d series; %d skipped as %q, %d not placed\n",
				verb, len(result.Placed), len(result.Skipped), "delete", result.Issues.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", fmt.Sprintf("Transfer mode: %s, %s or %s (overrides placement.mode)",
		config.PlacementModeAuto, config.PlacementModeCopy, config.PlacementModeMove))
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be placed without writing")
	return cmd
}
