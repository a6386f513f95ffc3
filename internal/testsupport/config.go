package testsupport

import (
	"path/filepath"
	"testing"

	"mrimark/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithConfig applies an arbitrary mutation to the test config.
func WithConfig(mutate func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		mutate(b.cfg)
	}
}

// WithThinSlicePolicy switches the 3D-T1 pass to the thin_slice policy.
func WithThinSlicePolicy(maxSpacing float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Refine.T1ThreeDPolicy = "thin_slice"
		if maxSpacing > 0 {
			b.cfg.Refine.T1ThreeDMaxSpacing = maxSpacing
		}
	}
}

// WithRulePack writes body to a rule pack file named name under the test
// directory and points rules.file at it.
func WithRulePack(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, name)
		WriteText(b.t, path, body)
		b.cfg.Rules.File = path
	}
}

// WithoutHistory disables the run history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
