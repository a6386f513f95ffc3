// Package textutil holds small text helpers shared by ingestion and
// placement: filesystem-safe names and legacy-encoding fallback decoding of
// sidecar files.
package textutil
