// Package main hosts the mrimark CLI entrypoint and command graph.
//
// The Cobra command tree covers the whole series-sorting flow: ingest
// scanner sidecars into per-subject tables, summarize them, classify the
// summary into sequence labels and study rounds, then place the converted
// images into the labeled tree. Supporting commands print the effective rule
// table, explain how a single series would be labeled, browse run history
// and scaffold configuration.
//
// Configuration loading and logger setup live in commandContext so
// subcommands only wire flags to the internal packages.
package main
