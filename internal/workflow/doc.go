// Package workflow runs a classify job end to end.
//
// The Pipeline executes the labeling passes strictly in order, each as a full
// scan of the record set, then segments study rounds. Every pass sees the
// mutations of the passes before it. Problems with a single record are
// collected on the Report rather than aborting the run.
//
// Classify wraps the pipeline with table I/O and an optional history
// recorder, producing the Report the CLI renders and stores.
package workflow
