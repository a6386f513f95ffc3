// Package sidecar turns per-series JSON sidecars (and, optionally, DICOM
// headers) into per-subject metadata tables and merges those tables into the
// summary table that classify consumes.
//
// Collect walks <source>/<site>/<subject>/ and writes one
// <subject>_metadata.csv per subject whose directory name matches the
// configured pattern. Summarize concatenates those files, drops sparsely
// filled columns and writes summary_metadata.csv next to them.
package sidecar
