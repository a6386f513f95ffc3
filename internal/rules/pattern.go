package rules

import (
	"fmt"
	"regexp"
	"strings"

	"mrimark/internal/issues"
)

// Pattern is a compiled regular expression that remembers its source text.
// The zero value never matches.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// CompilePattern compiles src for case-insensitive search. An empty source
// yields a disabled pattern rather than one that matches everything.
func CompilePattern(src string) (Pattern, error) {
	return compile(src, true)
}

// CompileExactPattern compiles src without case folding.
func CompileExactPattern(src string) (Pattern, error) {
	return compile(src, false)
}

func compile(src string, fold bool) (Pattern, error) {
	if strings.TrimSpace(src) == "" {
		return Pattern{}, nil
	}
	expr := src
	if fold {
		expr = "(?i)" + src
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, issues.Wrap(issues.ErrConfiguration, "rules", "compile pattern", fmt.Sprintf("%q", src), err)
	}
	return Pattern{source: src, re: re}, nil
}

// MatchString reports whether the pattern occurs anywhere in s.
func (p Pattern) MatchString(s string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(s)
}

// Enabled reports whether the pattern has a non-empty source.
func (p Pattern) Enabled() bool { return p.re != nil }

func (p Pattern) String() string { return p.source }
