// Package table reads and writes the flat tabular files exchanged with the
// rest of the imaging workflow.
//
// Tables are CSV with a header row. Files written here carry a UTF-8 byte
// order mark so spreadsheet tools open non-ASCII series descriptions
// correctly; readers accept input with or without one. Cells are kept as
// strings, and an empty cell is the missing value.
package table
