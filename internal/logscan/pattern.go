package logscan

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind selects how a Pattern is tested against a line.
type PatternKind string

const (
	// KindContains matches when the value occurs anywhere in the line.
	KindContains PatternKind = "contains"

	// KindPrefix matches when the line starts with the value.
	KindPrefix PatternKind = "prefix"

	// KindRegexp matches when the compiled expression finds a match.
	KindRegexp PatternKind = "regexp"
)

// Pattern is a single line filter.
type Pattern struct {
	Kind  PatternKind `yaml:"kind" json:"kind"`
	Value string      `yaml:"value" json:"value"`
}

// String renders the pattern as "kind:value" for log output.
func (p Pattern) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.Value)
}

// Lines of interest in a Sikraken session log.
const (
	SessionResultsHeader = "Sikraken Session Results:"
	CPUTimeLabel         = "ECLiPSe CPU time:"
	GeneratedLabel       = "Generated:"
)

// DefaultPatterns returns the summary filters: the results header anywhere
// in a line, and the CPU time and generation labels at the start of a line.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Kind: KindContains, Value: SessionResultsHeader},
		{Kind: KindPrefix, Value: CPUTimeLabel},
		{Kind: KindPrefix, Value: GeneratedLabel},
	}
}

// Matcher tests lines against a compiled set of patterns. A line matches
// when any pattern matches.
type Matcher struct {
	tests []func(string) bool
}

// Compile builds a Matcher. It fails on an unknown kind, an empty value,
// or a regexp that does not compile.
func Compile(patterns []Pattern) (*Matcher, error) {
	m := &Matcher{tests: make([]func(string) bool, 0, len(patterns))}

	for _, p := range patterns {
		if p.Value == "" {
			return nil, fmt.Errorf("pattern %q: empty value", p.Kind)
		}

		// Copy for the closure; p is reused by the loop.
		value := p.Value
		switch p.Kind {
		case KindContains:
			m.tests = append(m.tests, func(line string) bool {
				return strings.Contains(line, value)
			})
		case KindPrefix:
			m.tests = append(m.tests, func(line string) bool {
				return strings.HasPrefix(line, value)
			})
		case KindRegexp:
			re, err := regexp.Compile(value)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", value, err)
			}
			m.tests = append(m.tests, re.MatchString)
		default:
			return nil, fmt.Errorf("unknown pattern kind %q (valid kinds: contains, prefix, regexp)", p.Kind)
		}
	}

	return m, nil
}

// Match reports whether line matches any pattern.
func (m *Matcher) Match(line string) bool {
	for _, test := range m.tests {
		if test(line) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.tests)
}
