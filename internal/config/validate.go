package config

import (
	"fmt"
	"regexp"

	"mrimark/internal/issues"
	"mrimark/internal/marker"
)

// Validate ensures the configuration is usable. Every rule and refinement
// pattern is compiled, so a bad expression is reported here rather than
// halfway through a table.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTable(); err != nil {
		return err
	}
	if err := c.validateRefine(); err != nil {
		return err
	}
	if err := c.validateRounds(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validatePlacement(); err != nil {
		return err
	}
	if _, err := c.Marker(); err != nil {
		return err
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return issues.Wrap(issues.ErrConfiguration, "config", field, fmt.Sprintf(format, args...), nil)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", "unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", "unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTable() error {
	if c.Table.LabelColumn == "" {
		return invalid("table.label_column", "must be set")
	}
	return nil
}

func (c *Config) validateRefine() error {
	if _, err := marker.ParseSpacingPolicy(c.Refine.T1ThreeDPolicy); err != nil {
		return fmt.Errorf("refine.t1_3d_policy: %w", err)
	}
	if c.Refine.T1ThreeDMaxSpacing <= 0 {
		return invalid("refine.t1_3d_max_spacing", "must be positive")
	}
	return nil
}

func (c *Config) validateRounds() error {
	if c.Rounds.GapDays <= 0 {
		return invalid("rounds.gap_days", "must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if _, err := regexp.Compile(c.Ingest.SubjectPattern); err != nil {
		return issues.Wrap(issues.ErrConfiguration, "config", "ingest.subject_pattern", "", err)
	}
	if c.Ingest.MinColumnFill < 0 || c.Ingest.MinColumnFill > 1 {
		return invalid("ingest.min_column_fill", "must be between 0 and 1")
	}
	return nil
}

func (c *Config) validatePlacement() error {
	if _, err := regexp.Compile(c.Placement.SubjectPattern); err != nil {
		return issues.Wrap(issues.ErrConfiguration, "config", "placement.subject_pattern", "", err)
	}
	if len(c.Placement.MatchFields) == 0 {
		return invalid("placement.match_fields", "must list at least one field")
	}
	switch c.Placement.Mode {
	case PlacementModeAuto, PlacementModeCopy, PlacementModeMove:
	default:
		return invalid("placement.mode", "unsupported value %q (want auto, copy or move)", c.Placement.Mode)
	}
	return nil
}
