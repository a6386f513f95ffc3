package placement

import (
	"fmt"
	"strconv"
	"strings"

	"mrimark/internal/rounds"
	"mrimark/internal/textutil"
)

// SubjectID builds the destination directory name for a subject. Site
// directories are named "<number>+<name>"; subjects are "<number>+<name>" or
// "<a>-<b>-<number>". When either number is missing the sanitized subject
// name is used instead.
func SubjectID(prefix, site, subject string) string {
	siteNum, okSite := leadingNumber(site, "+")
	subjectNum, okSubject := subjectNumber(subject)
	if !okSite || !okSubject {
		return textutil.SanitizeFileName(subject)
	}
	id := fmt.Sprintf("%03d-%03d", siteNum, subjectNum)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

func subjectNumber(subject string) (int, bool) {
	if n, ok := leadingNumber(subject, "+"); ok {
		return n, true
	}
	parts := strings.Split(subject, "-")
	if len(parts) < 3 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	return n, err == nil && n >= 0
}

func leadingNumber(name, sep string) (int, bool) {
	head, _, _ := strings.Cut(name, sep)
	head = strings.TrimSpace(head)
	if head == "" {
		return 0, false
	}
	for _, r := range head {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(head)
	return n, err == nil
}

// FileStem returns the "<round>_<date>_<series>_<label>" base name shared by
// every file of a placed series.
func FileStem(round, date, seriesNumber, label string) string {
	if round == "" {
		round = rounds.Unparseable
	}
	return textutil.SanitizeFileName(strings.Join([]string{round, date, seriesNumber, label}, "_"))
}
