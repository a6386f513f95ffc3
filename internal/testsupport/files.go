package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mrimark/internal/table"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	writeBytes(t, path, buf)
}

// WriteText writes body to path, creating parent directories.
func WriteText(t testing.TB, path, body string) {
	t.Helper()
	writeBytes(t, path, []byte(body))
}

// WriteJSON encodes v as a sidecar-style JSON document at path.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	writeBytes(t, path, data)
}

// WriteTable writes a CSV table with the given header and rows.
func WriteTable(t testing.TB, path string, header []string, rows ...[]string) {
	t.Helper()
	tbl := table.New(header...)
	for _, row := range rows {
		tbl.Rows = append(tbl.Rows, append([]string(nil), row...))
	}
	if err := table.WriteFile(path, tbl); err != nil {
		t.Fatalf("write table %s: %v", path, err)
	}
}

// ReadTable reads the CSV table at path.
func ReadTable(t testing.TB, path string) *table.Table {
	t.Helper()
	tbl, err := table.ReadFile(path)
	if err != nil {
		t.Fatalf("read table %s: %v", path, err)
	}
	return tbl
}

// Column returns every value of the named column.
func Column(t testing.TB, tbl *table.Table, name string) []string {
	t.Helper()
	col := tbl.Index(name)
	if col < 0 {
		t.Fatalf("column %q missing from %v", name, tbl.Header)
	}
	out := make([]string, tbl.Len())
	for i := range tbl.Rows {
		out[i] = tbl.Cell(i, col)
	}
	return out
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
