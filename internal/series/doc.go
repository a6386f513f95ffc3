// Package series defines the per-series record the classifier works on and
// binds it to rows of a metadata table.
package series
