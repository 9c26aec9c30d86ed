/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package grammar

import (
	"fmt"

	"bennypowers.dev/tmgrammar/pattern"
)

// Range is a rule spanning from a Begin match to an End match, or for as
// long as each following line matches While.
type Range struct {
	TagAs string
	Begin *pattern.Pattern
	End   *pattern.Pattern
	While *pattern.Pattern

	// Includes are the patterns tried between Begin and End: repository
	// names, patterns or nested ranges.
	Includes []any
}

func (r *Range) patterns() []*pattern.Pattern {
	var out []*pattern.Pattern
	for _, p := range []*pattern.Pattern{r.Begin, r.End, r.While} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Range) check() error {
	switch {
	case r.Begin == nil:
		return fmt.Errorf("%w: missing begin pattern", ErrInvalidRange)
	case r.End == nil && r.While == nil:
		return fmt.Errorf("%w: needs an end or a while pattern", ErrInvalidRange)
	case r.End != nil && r.While != nil:
		return fmt.Errorf("%w: end and while are mutually exclusive", ErrInvalidRange)
	}
	return nil
}

// compile emits the range as a rule. Each delimiter is flattened on its own,
// so its captures are numbered from 1. Back-references in end and while may
// name groups of begin.
func (r *Range) compile(repo pattern.Repository) (pattern.Rule, error) {
	if err := r.check(); err != nil {
		return nil, err
	}

	rule := pattern.Rule{}
	if r.TagAs != "" {
		rule["name"] = r.TagAs
	}

	delimiters := []struct {
		key     string
		pattern *pattern.Pattern
	}{
		{"begin", r.Begin},
		{"end", r.End},
		{"while", r.While},
	}
	var beginGroups []pattern.GroupAttributes
	for _, d := range delimiters {
		if d.pattern == nil {
			continue
		}
		resolved, err := d.pattern.Resolve(repo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		var tagged pattern.Rule
		if d.key == "begin" {
			beginGroups = resolved.CollectGroupAttributes(1)
			tagged, err = resolved.Tag()
		} else {
			tagged, err = resolved.TagWithin(beginGroups)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		rule[d.key] = tagged["match"]
		if captures, ok := tagged["captures"]; ok {
			rule[d.key+"Captures"] = captures
		}
	}

	if len(r.Includes) > 0 {
		patterns, err := compileList(r.Includes, repo)
		if err != nil {
			return nil, err
		}
		rule["patterns"] = patterns
	}
	return rule, nil
}
