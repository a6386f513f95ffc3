package sidecar_test

import (
	"errors"
	"testing"

	"mrimark/internal/issues"
	"mrimark/internal/sidecar"
)

func TestNamingIdentify(t *testing.T) {
	cases := []struct {
		name      string
		pattern   string
		splitChar string
		subject   string
		want      sidecar.Identity
	}{
		{"plus split", `^\d+\+\w+`, "+", "001+Zhang", sidecar.Identity{PID: "001", PName: "Zhang"}},
		{"dash split", `^MAP-\d+-\d+`, "-", "MAP-01-023", sidecar.Identity{HPID: "01", PID: "023"}},
		{"pattern match", `^\d+`, "_", "123 Li Si", sidecar.Identity{PID: "123", PName: "Li Si"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			naming, err := sidecar.NewNaming(tc.pattern, tc.splitChar)
			if err != nil {
				t.Fatalf("NewNaming: %v", err)
			}
			got, err := naming.Identify(tc.subject)
			if err != nil {
				t.Fatalf("Identify: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Identify(%q) = %+v, want %+v", tc.subject, got, tc.want)
			}
		})
	}
}

func TestNamingRejects(t *testing.T) {
	naming, err := sidecar.NewNaming(`^\d+\+\w+`, "+")
	if err != nil {
		t.Fatalf("NewNaming: %v", err)
	}
	if naming.Matches("x001+Zhang") {
		t.Fatal("pattern must anchor at the start of the name")
	}
	if _, err := naming.Identify("notes"); !errors.Is(err, issues.ErrData) {
		t.Fatalf("expected data error, got %v", err)
	}

	short, err := sidecar.NewNaming(`^MAP`, "-")
	if err != nil {
		t.Fatalf("NewNaming: %v", err)
	}
	if _, err := short.Identify("MAP-01"); !errors.Is(err, issues.ErrData) {
		t.Fatalf("expected data error for short name, got %v", err)
	}

	if _, err := sidecar.NewNaming(`(`, "+"); !errors.Is(err, issues.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestIdentityColumns(t *testing.T) {
	names, values := sidecar.Identity{HPID: "01", PID: "023"}.Columns()
	if len(names) != 2 || names[0] != sidecar.ColumnHPID || names[1] != sidecar.ColumnPID {
		t.Fatalf("unexpected names %v", names)
	}
	if values[sidecar.ColumnPID] != "023" {
		t.Fatalf("unexpected values %v", values)
	}
}
