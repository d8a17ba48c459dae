// Package filter decides entry visibility from a declarative state: four
// category axes with independent include and exclude sets, keyword include
// and exclude token sets, two sentinel modes that bypass the stored sets
// without deleting them, and an optional boolean expression.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"

	"logview/internal/model"
)

// Axis names one filtering dimension.
type Axis string

const (
	AxisSource  Axis = "source"
	AxisType    Axis = "type"
	AxisSubtype Axis = "subtype"
	AxisLevel   Axis = "level"
)

// Mode selects the include or exclude set of an axis or keyword predicate.
type Mode string

const (
	Include Mode = "include"
	Exclude Mode = "exclude"
)

// Sentinel overrides per-axis settings; at most one is active.
type Sentinel string

const (
	SentinelNone    Sentinel = ""
	SentinelShowAll Sentinel = "show-all"
	SentinelHideAll Sentinel = "hide-all"
)

func ParseAxis(s string) (Axis, error) {
	switch Axis(strings.ToLower(strings.TrimSpace(s))) {
	case AxisSource:
		return AxisSource, nil
	case AxisType:
		return AxisType, nil
	case AxisSubtype:
		return AxisSubtype, nil
	case AxisLevel:
		return AxisLevel, nil
	}
	return "", fmt.Errorf("invalid filter axis %q: want source, type, subtype or level", s)
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Include:
		return Include, nil
	case Exclude:
		return Exclude, nil
	}
	return "", fmt.Errorf("invalid filter mode %q: want include or exclude", s)
}

type axisState struct {
	include map[string]struct{}
	exclude map[string]struct{}
	touched bool // an explicit selection was ever made on this axis
}

func newAxisState() *axisState {
	return &axisState{include: map[string]struct{}{}, exclude: map[string]struct{}{}}
}

func (a *axisState) pass(v string) bool {
	if len(a.exclude) > 0 {
		if _, bad := a.exclude[v]; bad {
			return false
		}
	}
	if len(a.include) > 0 {
		if _, ok := a.include[v]; !ok {
			return false
		}
	}
	return true
}

// State holds the full declarative filter. Mutation is single-threaded by
// construction; Matches never mutates.
type State struct {
	axes      map[Axis]*axisState
	kwInclude []string // lowercase tokens
	kwExclude []string
	sentinel  Sentinel
	exprText  string
	expr      *govaluate.EvaluableExpression
}

func NewState() *State {
	return &State{axes: map[Axis]*axisState{
		AxisSource:  newAxisState(),
		AxisType:    newAxisState(),
		AxisSubtype: newAxisState(),
		AxisLevel:   newAxisState(),
	}}
}

// Matches reports whether the entry passes every active predicate.
// Evaluation order: hide-all, show-all, level, type, source, subtype,
// bootstrap exclusion, keyword-exclude, keyword-include, expression.
// Exclude is checked before include on each axis and wins when both hit.
func (s *State) Matches(e model.LogEntry) bool {
	switch s.sentinel {
	case SentinelHideAll:
		return false
	case SentinelShowAll:
		return true
	}
	if !s.axes[AxisLevel].pass(e.Level) {
		return false
	}
	if !s.axes[AxisType].pass(e.Type) {
		return false
	}
	if e.Source != "" && !s.axes[AxisSource].pass(e.Source) {
		return false
	}
	if e.Subtype != "" && !s.axes[AxisSubtype].pass(e.Subtype) {
		return false
	}
	// Until the source axis is explicitly selected, the viewer's own
	// chatter stays hidden by convention.
	if !s.axes[AxisSource].touched && e.Source == model.ReservedSource {
		return false
	}
	if len(s.kwExclude) > 0 {
		msg := strings.ToLower(e.Message)
		for _, tok := range s.kwExclude {
			if strings.Contains(msg, tok) {
				return false
			}
		}
	}
	if len(s.kwInclude) > 0 {
		hay := e.Haystack()
		hit := false
		for _, tok := range s.kwInclude {
			if strings.Contains(hay, tok) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if s.expr != nil {
		result, err := s.expr.Evaluate(e.Fields())
		if err != nil {
			return false
		}
		b, ok := result.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}

// SetCategory replaces one set of an axis and deactivates any sentinel.
func (s *State) SetCategory(axis Axis, mode Mode, values []string) {
	a := s.axes[axis]
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = model.NormalizeTag(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	if mode == Include {
		a.include = set
	} else {
		a.exclude = set
	}
	a.touched = true
	s.sentinel = SentinelNone
}

// Toggle flips membership of value in the axis include set. An active
// HIDE_ALL is cleared first and the axis reset, leaving the toggled value
// as its sole selection; an active SHOW_ALL is cleared without resetting.
func (s *State) Toggle(axis Axis, value string) {
	v := model.NormalizeTag(value)
	if v == "" {
		return
	}
	a := s.axes[axis]
	switch s.sentinel {
	case SentinelHideAll:
		s.sentinel = SentinelNone
		a.include = map[string]struct{}{v: {}}
		a.exclude = map[string]struct{}{}
	case SentinelShowAll:
		s.sentinel = SentinelNone
		fallthrough
	default:
		if _, ok := a.include[v]; ok {
			delete(a.include, v)
		} else {
			a.include[v] = struct{}{}
		}
	}
	a.touched = true
}

// SetKeyword installs the include or exclude phrase, whitespace-tokenized
// and lower-cased. An empty phrase clears the predicate.
func (s *State) SetKeyword(mode Mode, phrase string) {
	toks := strings.Fields(strings.ToLower(phrase))
	if mode == Include {
		s.kwInclude = toks
	} else {
		s.kwExclude = toks
	}
}

func (s *State) ShowAll() { s.sentinel = SentinelShowAll }
func (s *State) HideAll() { s.sentinel = SentinelHideAll }

// Clear resets to the pristine zero state: empty axes, no keywords, no
// sentinel, no expression. Idempotent.
func (s *State) Clear() {
	*s = *NewState()
}

// SetExpression compiles expr eagerly so a bad expression fails at the API
// boundary, never during Matches. Empty clears.
func (s *State) SetExpression(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		s.exprText = ""
		s.expr = nil
		return nil
	}
	ev, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression %q: %w", expr, err)
	}
	s.exprText = expr
	s.expr = ev
	return nil
}

func (s *State) Sentinel() Sentinel { return s.sentinel }

func (s *State) Expression() string { return s.exprText }

// Values returns the sorted contents of one axis set.
func (s *State) Values(axis Axis, mode Mode) []string {
	a := s.axes[axis]
	set := a.include
	if mode == Exclude {
		set = a.exclude
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Keywords returns the stored token set for the mode.
func (s *State) Keywords(mode Mode) []string {
	if mode == Include {
		return append([]string(nil), s.kwInclude...)
	}
	return append([]string(nil), s.kwExclude...)
}

// Touched reports whether the axis ever received an explicit selection.
func (s *State) Touched(axis Axis) bool { return s.axes[axis].touched }

// String renders a compact one-line summary for status bars.
func (s *State) String() string {
	switch s.sentinel {
	case SentinelShowAll:
		return "show-all"
	case SentinelHideAll:
		return "hide-all"
	}
	parts := []string{}
	for _, ax := range []Axis{AxisLevel, AxisType, AxisSource, AxisSubtype} {
		if inc := s.Values(ax, Include); len(inc) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", ax, strings.Join(inc, ",")))
		}
		if exc := s.Values(ax, Exclude); len(exc) > 0 {
			parts = append(parts, fmt.Sprintf("%s!=%s", ax, strings.Join(exc, ",")))
		}
	}
	if len(s.kwInclude) > 0 {
		parts = append(parts, "+"+strings.Join(s.kwInclude, " "))
	}
	if len(s.kwExclude) > 0 {
		parts = append(parts, "-"+strings.Join(s.kwExclude, " "))
	}
	if s.exprText != "" {
		parts = append(parts, "expr:"+s.exprText)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
