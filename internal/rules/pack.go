package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mrimark/internal/issues"
)

// LoadPack reads a rule pack from path. The format is chosen by extension:
// .toml, or .yaml/.yml. Unknown keys are rejected so a typo cannot silently
// drop a rule.
func LoadPack(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, issues.Wrap(issues.ErrConfiguration, "rules", "read pack", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return decodeTOMLPack(data, path)
	case ".yaml", ".yml":
		return decodeYAMLPack(data, path)
	default:
		return Config{}, issues.Wrap(issues.ErrConfiguration, "rules", "read pack", fmt.Sprintf("%s: unsupported extension %q", path, ext), nil)
	}
}

func decodeTOMLPack(data []byte, path string) (Config, error) {
	var pack Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&pack); err != nil {
		return Config{}, issues.Wrap(issues.ErrConfiguration, "rules", "parse pack", path, err)
	}
	return pack, nil
}

func decodeYAMLPack(data []byte, path string) (Config, error) {
	var pack Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pack); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, issues.Wrap(issues.ErrConfiguration, "rules", "parse pack", path, err)
	}
	return pack, nil
}

// Resolve overlays the pack named by cfg.File, if any, and compiles the
// result.
func Resolve(cfg Config) (Set, error) {
	if file := strings.TrimSpace(cfg.File); file != "" {
		pack, err := LoadPack(file)
		if err != nil {
			return Set{}, err
		}
		cfg = cfg.Overlay(pack)
	}
	return Compile(cfg)
}
