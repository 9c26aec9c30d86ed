/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import (
	"strconv"
	"strings"
)

// Rule is a TextMate grammar rule as emitted to JSON.
type Rule map[string]any

// Tag flattens the pattern into a match rule with a captures entry for every
// tagged group. It fails when any placeholder is still unresolved.
func (p *Pattern) Tag() (Rule, error) {
	return p.tag(nil)
}

// TagWithin tags the end or while pattern of a range. Back-references to
// names the pattern does not carry itself resolve to begin's groups, which
// are numbered from 1 on their own.
func (p *Pattern) TagWithin(begin []GroupAttributes) (Rule, error) {
	return p.tag(begin)
}

func (p *Pattern) tag(outer []GroupAttributes) (Rule, error) {
	var unresolved error
	p.walk(func(node *Pattern) {
		if v, ok := node.variant.(*placeholderVariant); ok && unresolved == nil {
			unresolved = v.checkResolved()
		}
	})
	if unresolved != nil {
		return nil, unresolved
	}

	groups := p.CollectGroupAttributes(1)
	match, err := p.evaluate(groups, outer)
	if err != nil {
		return nil, err
	}

	rule := Rule{"match": match}
	captures, err := Captures(groups)
	if err != nil {
		return nil, err
	}
	if len(captures) > 0 {
		rule["captures"] = captures
	}
	return rule, nil
}

// Captures converts group attributes into a TextMate captures object keyed
// by group number. Groups without a scope or includes are left out.
func Captures(groups []GroupAttributes) (map[string]any, error) {
	captures := make(map[string]any)
	for _, group := range groups {
		if group.TagAs == "" && len(group.Includes) == 0 {
			continue
		}
		capture := map[string]any{}
		if group.TagAs != "" {
			capture["name"] = group.TagAs
		}
		if len(group.Includes) > 0 {
			patterns := make([]any, 0, len(group.Includes))
			for _, include := range group.Includes {
				switch inc := include.(type) {
				case string:
					patterns = append(patterns, map[string]any{"include": IncludeTarget(inc)})
				case *Pattern:
					rule, err := inc.Tag()
					if err != nil {
						return nil, err
					}
					patterns = append(patterns, rule)
				}
			}
			capture["patterns"] = patterns
		}
		captures[strconv.Itoa(group.Group)] = capture
	}
	return captures, nil
}

// IncludeTarget converts a repository name into an include target. $self,
// $base, explicit #names and other scopes pass through.
func IncludeTarget(name string) string {
	if name == "$self" || name == "$base" || strings.HasPrefix(name, "#") || strings.Contains(name, ".") {
		return name
	}
	return "#" + name
}
