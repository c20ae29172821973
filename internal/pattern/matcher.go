// Package pattern compiles glob-like path patterns into matchers that are
// compiled once and tested against many paths.
//
// A Matcher combines its patterns under one of two policies chosen at compile
// time: "any" (the default, logical OR) or "all" (logical AND). A nil *Matcher
// matches nothing, which is how a disabled category is represented.
package pattern

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/unicode/norm"
)

// ErrNoPatterns is returned when compiling an empty pattern set.
var ErrNoPatterns = errors.New("pattern set is empty")

// Options controls how patterns are compiled and combined.
type Options struct {
	// All requires every pattern to match instead of at least one
	All bool `yaml:"all"`
	// Globstar treats "/" as a separator so "*" stays within one path
	// segment and "**" crosses directories. Without it "*" matches any
	// sequence of characters, separators included.
	Globstar bool `yaml:"globstar"`
	// IgnoreCase matches paths regardless of letter case
	IgnoreCase bool `yaml:"ignore_case"`
}

// Matcher is the compiled, read-only form of a pattern set.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
	options  Options
}

// Compile compiles patterns into a Matcher using the given options.
func Compile(patterns []string, options Options) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	var separators []rune
	if options.Globstar {
		separators = []rune{'/'}
	}

	m := &Matcher{
		patterns: append([]string(nil), patterns...),
		globs:    make([]glob.Glob, 0, len(patterns)),
		options:  options,
	}

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return nil, errors.New("pattern cannot be empty")
		}

		g, err := glob.Compile(m.normalize(p), separators...)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}

	return m, nil
}

// MustCompile is like Compile but panics on error. Intended for patterns
// known at build time.
func MustCompile(patterns []string, options Options) *Matcher {
	m, err := Compile(patterns, options)
	if err != nil {
		panic(err)
	}

	return m
}

// Results evaluates path against every pattern, in pattern order.
func (m *Matcher) Results(path string) []bool {
	if m == nil {
		return nil
	}

	subject := m.normalize(filepath.ToSlash(path))
	results := make([]bool, len(m.globs))
	for i, g := range m.globs {
		results[i] = g.Match(subject)
	}

	return results
}

// Test reports whether path matches the pattern set under the combination
// policy. A nil Matcher never matches.
func (m *Matcher) Test(path string) bool {
	if m == nil {
		return false
	}

	subject := m.normalize(filepath.ToSlash(path))
	if m.options.All {
		for _, g := range m.globs {
			if !g.Match(subject) {
				return false
			}
		}
		return true
	}

	for _, g := range m.globs {
		if g.Match(subject) {
			return true
		}
	}

	return false
}

// Patterns returns a copy of the source patterns.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}

	return append([]string(nil), m.patterns...)
}

// Options returns the options the matcher was compiled with.
func (m *Matcher) Options() Options {
	if m == nil {
		return Options{}
	}

	return m.options
}

// String implements fmt.Stringer for debug logging.
func (m *Matcher) String() string {
	if m == nil {
		return "<disabled>"
	}

	policy := "any"
	if m.options.All {
		policy = "all"
	}

	return fmt.Sprintf("%s(%s)", policy, strings.Join(m.patterns, ", "))
}

// normalize brings paths and patterns into the same Unicode form so that
// decomposed file names (as produced by some filesystems) still match.
func (m *Matcher) normalize(s string) string {
	s = norm.NFC.String(s)
	if m.options.IgnoreCase {
		s = strings.ToLower(s)
	}

	return s
}
