// Package placement copies or moves converted series into the labeled output
// tree.
//
// Sources live at <source>/<site>/<subject>/**/<name>.nii.gz with a
// <name>.json sidecar and optional <name>.bval/<name>.bvec gradient tables.
// Each sidecar is joined to the first classified table row that agrees on
// every configured match field present in the sidecar. The series then lands
// in <dst>/<site>/<id>/<round>/<label>/ as <round>_<date>_<series>_<label>.*,
// where <id> is <prefix>-<site:03d>-<subject:03d>.
//
// A lock file in the destination root keeps two placements from writing the
// same tree at once.
package placement
