// Package search implements the ad-hoc second visibility axis: a
// case-insensitive regex predicate with a literal fallback, and a debouncer
// that coalesces per-keystroke term updates.
package search

import (
	"regexp"
	"strings"
	"time"

	"logview/internal/model"
)

const DefaultQuiet = 300 * time.Millisecond

// Matcher matches entries against a compiled search term. The zero value
// matches everything.
type Matcher struct {
	term    string
	re      *regexp.Regexp
	literal string // lowercase fallback when the term does not compile
}

// Compile builds a matcher for term. A term that fails to compile as a
// regular expression degrades to literal substring matching; never an error.
func Compile(term string) Matcher {
	if term == "" {
		return Matcher{}
	}
	re, err := regexp.Compile("(?i)" + term)
	if err != nil {
		return Matcher{term: term, literal: strings.ToLower(term)}
	}
	return Matcher{term: term, re: re}
}

func (m Matcher) Term() string  { return m.term }
func (m Matcher) Empty() bool   { return m.term == "" }
func (m Matcher) IsRegex() bool { return m.re != nil }

// Match reports whether the entry's searchable text matches the term.
func (m Matcher) Match(e model.LogEntry) bool {
	if m.term == "" {
		return true
	}
	hay := e.Haystack()
	if m.re != nil {
		return m.re.MatchString(hay)
	}
	return strings.Contains(hay, m.literal)
}

// Debouncer defers term evaluation until a quiet period passes with no
// newer input. A new Set cancels the pending evaluation and reschedules;
// Commit is the escape hatch that fires immediately.
type Debouncer struct {
	quiet    time.Duration
	pending  string
	deadline time.Time
	armed    bool
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet}
}

// Set records a new term and restarts the quiet period.
func (d *Debouncer) Set(term string, now time.Time) {
	d.pending = term
	d.deadline = now.Add(d.quiet)
	d.armed = true
}

// Poll returns the pending term once its quiet period has elapsed. Polling
// with nothing due is a no-op.
func (d *Debouncer) Poll(now time.Time) (string, bool) {
	if !d.armed || now.Before(d.deadline) {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Commit fires the pending term without waiting out the quiet period.
func (d *Debouncer) Commit() (string, bool) {
	if !d.armed {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Waiting reports whether a term is pending.
func (d *Debouncer) Waiting() bool { return d.armed }
