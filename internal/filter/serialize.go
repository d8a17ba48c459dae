package filter

import (
	"encoding/json"
	"fmt"
	"sort"
)

type axisJSON struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Touched bool     `json:"touched,omitempty"`
}

type stateJSON struct {
	Axes           map[Axis]axisJSON `json:"axes"`
	KeywordInclude []string          `json:"keywordInclude,omitempty"`
	KeywordExclude []string          `json:"keywordExclude,omitempty"`
	Sentinel       Sentinel          `json:"sentinel,omitempty"`
	Expression     string            `json:"expression,omitempty"`
}

func setToSorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s *State) MarshalJSON() ([]byte, error) {
	doc := stateJSON{
		Axes:           make(map[Axis]axisJSON, len(s.axes)),
		KeywordInclude: s.kwInclude,
		KeywordExclude: s.kwExclude,
		Sentinel:       s.sentinel,
		Expression:     s.exprText,
	}
	for ax, a := range s.axes {
		doc.Axes[ax] = axisJSON{Include: setToSorted(a.include), Exclude: setToSorted(a.exclude), Touched: a.touched}
	}
	return json.Marshal(doc)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var doc stateJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decode filter state: %w", err)
	}
	ns := NewState()
	for ax, aj := range doc.Axes {
		a, ok := ns.axes[ax]
		if !ok {
			return fmt.Errorf("unknown filter axis %q in stored state", ax)
		}
		for _, v := range aj.Include {
			a.include[v] = struct{}{}
		}
		for _, v := range aj.Exclude {
			a.exclude[v] = struct{}{}
		}
		a.touched = aj.Touched
	}
	ns.kwInclude = doc.KeywordInclude
	ns.kwExclude = doc.KeywordExclude
	switch doc.Sentinel {
	case SentinelNone, SentinelShowAll, SentinelHideAll:
		ns.sentinel = doc.Sentinel
	default:
		return fmt.Errorf("unknown sentinel %q in stored state", doc.Sentinel)
	}
	if err := ns.SetExpression(doc.Expression); err != nil {
		return err
	}
	*s = *ns
	return nil
}
