package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeTable()
	c.normalizeRules()
	c.normalizeRefine()
	c.normalizeIngest()
	c.normalizePlacement()
	return c.normalizeHistory()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeTable() {
	c.Table.LabelColumn = strings.TrimSpace(c.Table.LabelColumn)
	if c.Table.LabelColumn == "" {
		c.Table.LabelColumn = defaultLabelColumn
	}
}

func (c *Config) normalizeRules() {
	if file := strings.TrimSpace(c.Rules.File); file != "" {
		if expanded, err := expandPath(file); err == nil {
			file = expanded
		}
		c.Rules.File = file
	}
	for i := range c.Rules.Sequence {
		c.Rules.Sequence[i].Label = strings.TrimSpace(c.Rules.Sequence[i].Label)
	}
	for i := range c.Rules.Fallback {
		c.Rules.Fallback[i].Vendor = strings.TrimSpace(c.Rules.Fallback[i].Vendor)
		c.Rules.Fallback[i].Field = strings.TrimSpace(c.Rules.Fallback[i].Field)
		for j := range c.Rules.Fallback[i].Sequence {
			c.Rules.Fallback[i].Sequence[j].Label = strings.TrimSpace(c.Rules.Fallback[i].Sequence[j].Label)
		}
	}
}

func (c *Config) normalizeRefine() {
	c.Refine.T1ThreeDPolicy = strings.ToLower(strings.TrimSpace(c.Refine.T1ThreeDPolicy))
}

func (c *Config) normalizeIngest() {
	c.Ingest.SubjectPattern = strings.TrimSpace(c.Ingest.SubjectPattern)
	if c.Ingest.SubjectPattern == "" {
		c.Ingest.SubjectPattern = defaultIngestSubjectPattern
	}
	if c.Ingest.SplitChar == "" {
		c.Ingest.SplitChar = defaultSplitChar
	}
}

func (c *Config) normalizePlacement() {
	c.Placement.SubjectPattern = strings.TrimSpace(c.Placement.SubjectPattern)
	if c.Placement.SubjectPattern == "" {
		c.Placement.SubjectPattern = c.Ingest.SubjectPattern
	}
	fields := make([]string, 0, len(c.Placement.MatchFields))
	for _, field := range c.Placement.MatchFields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			fields = append(fields, trimmed)
		}
	}
	c.Placement.MatchFields = fields
	c.Placement.Mode = strings.ToLower(strings.TrimSpace(c.Placement.Mode))
	if c.Placement.Mode == "" {
		c.Placement.Mode = defaultPlacementMode
	}
	c.Placement.IDPrefix = strings.TrimSpace(c.Placement.IDPrefix)
	c.Placement.UnlabeledDir = strings.TrimSpace(c.Placement.UnlabeledDir)
	if c.Placement.UnlabeledDir == "" {
		c.Placement.UnlabeledDir = defaultUnlabeledDir
	}
}

func (c *Config) normalizeHistory() error {
	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}
