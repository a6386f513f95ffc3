// Package config loads, normalizes, and validates mrimark configuration.
//
// It supplies defaults for every section, expands user paths (including tilde
// shortcuts), reads TOML files, and compiles the rule and refinement patterns
// up front so a bad regular expression stops a run before any table is read.
// The [rules] section is an overlay on the stock rule table: entries with a
// known label replace that label's pattern, new labels are appended.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum values, and clear validation errors.
package config
