// Package rules holds the pattern rule table that drives series labeling.
//
// A Table is an ordered list of label/pattern entries. Every entry is
// evaluated against a series description and the entry with the highest
// priority wins, where priority is the entry's position in the table: later
// entries outrank earlier ones. A Set bundles the main table with the
// "Others" and "delete" override patterns and the per-vendor fallback tables.
//
// Tables and sets are immutable values. Merging entries or replacing an
// override pattern returns a new value, and every pattern is compiled up
// front so an invalid expression surfaces as a configuration error before any
// record is touched. Patterns match case-insensitively anywhere in the text
// unless they carry their own anchors; the five-capital-letter rule is the one
// case-sensitive slot.
//
// Rule packs let sites ship their own table as a TOML or YAML file that is
// overlaid on the configured defaults.
package rules
