package placement

import "testing"

func TestSubjectID(t *testing.T) {
	cases := []struct {
		prefix, site, subject, want string
	}{
		{"MAP", "1+SiteA", "001+Zhang", "MAP-001-001"},
		{"MAP", "12+SiteB", "HX-A-7", "MAP-012-007"},
		{"MAP", "SiteC", "001+Zhang", "001+Zhang"},
		{"MAP", "3+SiteD", "patient:x", "patient-x"},
		{"", "2+SiteE", "14+Li", "002-014"},
	}
	for _, tc := range cases {
		if got := SubjectID(tc.prefix, tc.site, tc.subject); got != tc.want {
			t.Fatalf("SubjectID(%q, %q, %q) = %q, want %q", tc.prefix, tc.site, tc.subject, got, tc.want)
		}
	}
}

func TestFileStem(t *testing.T) {
	if got := FileStem("V1", "2020-01-01", "3", "3DT1"); got != "V1_2020-01-01_3_3DT1" {
		t.Fatalf("unexpected stem %q", got)
	}
	if got := FileStem("", "", "7", "T2"); got != "unparseable__7_T2" {
		t.Fatalf("unexpected stem for missing round %q", got)
	}
}
