package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mrimark/internal/issues"
	"mrimark/internal/marker"
	"mrimark/internal/rounds"
	"mrimark/internal/rules"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Table controls how the metadata table is read and written.
type Table struct {
	LabelColumn string `toml:"label_column"`
	// KeepLabels seeds the pipeline with labels already present in the table
	// instead of starting every record unlabeled.
	KeepLabels bool `toml:"keep_labels"`
}

// Refine configures the 3D-T1 and SWI refinement passes.
type Refine struct {
	T1ThreeDPattern     string  `toml:"t1_3d_pattern"`
	T1ThreeDPolicy      string  `toml:"t1_3d_policy"`
	T1ThreeDMaxSpacing  float64 `toml:"t1_3d_max_spacing"`
	SWIPhasePattern     string  `toml:"swi_phase_pattern"`
	SWIMagnitude        bool    `toml:"swi_magnitude"`
	SWIMagnitudePattern string  `toml:"swi_magnitude_pattern"`
}

// Rounds configures study-round segmentation.
type Rounds struct {
	GapDays int `toml:"gap_days"`
}

// Ingest configures sidecar collection and summary merging.
type Ingest struct {
	SubjectPattern string  `toml:"subject_pattern"`
	SplitChar      string  `toml:"split_char"`
	MinColumnFill  float64 `toml:"min_column_fill"`
	IncludeDICOM   bool    `toml:"include_dicom"`
}

// Placement configures how labeled images are copied into the output tree.
type Placement struct {
	SubjectPattern string   `toml:"subject_pattern"`
	MatchFields    []string `toml:"match_fields"`
	Mode           string   `toml:"mode"`
	IDPrefix       string   `toml:"id_prefix"`
	SkipDeleted    bool     `toml:"skip_deleted"`
	UnlabeledDir   string   `toml:"unlabeled_dir"`
}

// History configures the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for mrimark.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Logging: log format, level, and retention
//   - Table: label column name and whether existing labels seed a run
//   - Rules: overlay on the stock label table and override patterns
//   - Refine: 3D-T1 spacing policy and SWI phase/magnitude patterns
//   - Rounds: inactivity gap that opens a new study round
//   - Ingest: per-subject sidecar collection and summary merge
//   - Placement: output layout and copy/move behaviour
//   - History: SQLite run history
type Config struct {
	Paths     Paths        `toml:"paths"`
	Logging   Logging      `toml:"logging"`
	Table     Table        `toml:"table"`
	Rules     rules.Config `toml:"rules"`
	Refine    Refine       `toml:"refine"`
	Rounds    Rounds       `toml:"rounds"`
	Ingest    Ingest       `toml:"ingest"`
	Placement Placement    `toml:"placement"`
	History   History      `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mrimark/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, issues.Wrap(issues.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return issues.Wrap(issues.ErrConfiguration, "config", "parse", strict.String(), nil)
		}
		return issues.Wrap(issues.ErrConfiguration, "config", "parse", "", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mrimark.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return issues.Wrap(issues.ErrIO, "config", "create directory", dir, err)
		}
	}
	return nil
}

// EffectiveRules returns the stock rule configuration with the [rules]
// section applied. The external pack named by rules.file is not read here.
func (c *Config) EffectiveRules() rules.Config {
	effective := rules.DefaultConfig().Overlay(c.Rules)
	effective.File = c.Rules.File
	return effective
}

// RuleSet compiles the effective rules, including any external pack.
func (c *Config) RuleSet() (rules.Set, error) {
	return rules.Resolve(c.EffectiveRules())
}

// MarkerOptions returns the refinement settings.
func (c *Config) MarkerOptions() marker.Options {
	return marker.Options{
		ThreeDPattern:    c.Refine.T1ThreeDPattern,
		SpacingPolicy:    c.Refine.T1ThreeDPolicy,
		MaxSpacing:       c.Refine.T1ThreeDMaxSpacing,
		PhasePattern:     c.Refine.SWIPhasePattern,
		Magnitude:        c.Refine.SWIMagnitude,
		MagnitudePattern: c.Refine.SWIMagnitudePattern,
	}
}

// Marker compiles the rule set and refinement passes.
func (c *Config) Marker() (*marker.Marker, error) {
	set, err := c.RuleSet()
	if err != nil {
		return nil, err
	}
	return marker.New(set, c.MarkerOptions())
}

// Segmenter returns the study-round segmenter.
func (c *Config) Segmenter() rounds.Segmenter {
	return rounds.New(c.Rounds.GapDays)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string { return sampleConfig }

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
