package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"mrimark/internal/issues"
)

// Table is an in-memory CSV table. Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// New returns an empty table with the given columns.
func New(header ...string) *Table {
	return &Table{Header: slices.Clone(header)}
}

// Read parses CSV from r. A leading byte order mark is stripped, short rows
// are padded with empty cells and long rows are truncated to the header.
func Read(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(bufio.NewReader(decoded))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, issues.Wrap(issues.ErrData, "table", "read header", "table is empty", nil)
		}
		return nil, issues.Wrap(issues.ErrData, "table", "read header", "", err)
	}
	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, issues.Wrap(issues.ErrData, "table", "read row", fmt.Sprintf("row %d", len(t.Rows)), err)
		}
		t.Rows = append(t.Rows, fit(record, len(header)))
	}
	return t, nil
}

// ReadFile reads the table stored at path.
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, issues.Wrap(issues.ErrIO, "table", "open", path, err)
	}
	defer file.Close()
	t, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write encodes t as CSV preceded by a UTF-8 byte order mark.
func (t *Table) Write(w io.Writer) error {
	encoded := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(encoded)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(fit(row, len(t.Header))); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return encoded.Close()
}

// WriteFile writes t to path through a temporary file in the same directory
// so readers never observe a partially written table.
func WriteFile(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return issues.Wrap(issues.ErrIO, "table", "create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return issues.Wrap(issues.ErrIO, "table", "create temp file", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := t.Write(tmp); err != nil {
		_ = tmp.Close()
		return issues.Wrap(issues.ErrIO, "table", "write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return issues.Wrap(issues.ErrIO, "table", "close", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return issues.Wrap(issues.ErrIO, "table", "rename", path, err)
	}
	return nil
}

// Len reports the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Header, name)
}

// Has reports whether column name exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// EnsureColumn returns the position of column name, appending an empty column
// when it does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.Index(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

// Cell returns the value at row/col. A negative col yields "".
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Value returns the value of column name in row, or "" when the column is
// absent.
func (t *Table) Value(row int, name string) string {
	return t.Cell(row, t.Index(name))
}

// SetCell stores value at row/col.
func (t *Table) SetCell(row, col int, value string) {
	t.Rows[row][col] = value
}

// Append adds a row given as column→value pairs, creating missing columns.
func (t *Table) Append(values map[string]string, order []string) {
	for _, name := range order {
		t.EnsureColumn(name)
	}
	row := make([]string, len(t.Header))
	for i, name := range t.Header {
		row[i] = values[name]
	}
	t.Rows = append(t.Rows, row)
}

// Fill reports the fraction of non-empty cells in column col.
func (t *Table) Fill(col int) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	filled := 0
	for _, row := range t.Rows {
		if row[col] != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(t.Rows))
}

// DropSparse removes every column whose fill ratio is below minFill and
// returns the removed column names.
func (t *Table) DropSparse(minFill float64) []string {
	if len(t.Rows) == 0 {
		return nil
	}
	keep := make([]int, 0, len(t.Header))
	var dropped []string
	for i, name := range t.Header {
		if t.Fill(i) < minFill {
			dropped = append(dropped, name)
			continue
		}
		keep = append(keep, i)
	}
	if len(dropped) == 0 {
		return nil
	}
	header := make([]string, len(keep))
	for j, i := range keep {
		header[j] = t.Header[i]
	}
	for r, row := range t.Rows {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		t.Rows[r] = out
	}
	t.Header = header
	return dropped
}

// Concat stacks tables vertically. The result carries the union of all
// columns in first-seen order; cells missing from a source table are empty.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, src := range tables {
		if src == nil {
			continue
		}
		positions := make([]int, len(src.Header))
		for i, name := range src.Header {
			positions[i] = out.EnsureColumn(name)
		}
		for _, row := range src.Rows {
			dst := make([]string, len(out.Header))
			for i, value := range row {
				dst[positions[i]] = value
			}
			out.Rows = append(out.Rows, dst)
		}
	}
	return out
}

func fit(row []string, width int) []string {
	switch {
	case len(row) == width:
		return row
	case len(row) > width:
		return row[:width]
	default:
		out := make([]string, width)
		copy(out, row)
		return out
	}
}
