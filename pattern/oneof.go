/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import (
	"reflect"
	"strings"

	"bennypowers.dev/tmgrammar/internal/logger"
)

// oneOfVariant provides alternation: the node matches when any one of its
// patterns matches.
type oneOfVariant struct {
	patterns []*Pattern
}

// OneOf matches any one of patterns. Items that are not a *Pattern are
// wrapped with New. A non-list argument is reported and treated as a
// one-element list.
func OneOf(patterns any, opts ...Option) *Pattern {
	items, ok := toList(patterns)
	if !ok {
		logger.Warn("OneOf() expects a list of patterns, the provided argument is not a list.\n"+
			"The argument to OneOf is below\n%v", patterns)
		items = []any{patterns}
	}
	if len(items) == 0 {
		logger.Warn("OneOf() was given an empty list of patterns")
	}
	v := &oneOfVariant{patterns: make([]*Pattern, 0, len(items))}
	for _, item := range items {
		if p, ok := item.(*Pattern); ok && p != nil {
			v.patterns = append(v.patterns, p)
			continue
		}
		v.patterns = append(v.patterns, New(item))
	}
	return newPattern(v, opts)
}

// OneOf appends an alternation of patterns to a copy of the chain.
func (p *Pattern) OneOf(patterns any, opts ...Option) *Pattern {
	return p.Insert(OneOf(patterns, opts...))
}

func toList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []*Pattern:
		items := make([]any, len(list))
		for i, p := range list {
			items[i] = p
		}
		return items, true
	case []string:
		items := make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func (v *oneOfVariant) evaluateSelf(p *Pattern) (string, error) {
	branches := make([]string, len(v.patterns))
	for i, pattern := range v.patterns {
		regex, err := pattern.Evaluate(nil)
		if err != nil {
			return "", err
		}
		if !pattern.SingleEntity() {
			regex = "(?:" + regex + ")"
		}
		branches[i] = regex
	}

	alternation := strings.Join(branches, "|")
	switch {
	case p.opts.quantifier.set:
		// the capture must hold every repetition, not only the last one
		out := "(?:" + alternation + ")" + p.opts.quantifier.String()
		if p.opts.capturing() {
			out = "(" + out + ")"
		}
		return out, nil
	case p.opts.capturing():
		return "(" + alternation + ")", nil
	default:
		return "(?:" + alternation + ")", nil
	}
}

func (v *oneOfVariant) collectSelfGroups(_ *Pattern, nextGroup int) []GroupAttributes {
	var groups []GroupAttributes
	for _, pattern := range v.patterns {
		patGroups := pattern.CollectGroupAttributes(nextGroup)
		groups = append(groups, patGroups...)
		nextGroup += len(patGroups)
	}
	return groups
}

// The alternation is always wrapped in a group, so it is atomic unless an
// uncaptured quantifier follows it.
func (v *oneOfVariant) singleEntity(p *Pattern) bool {
	return p.opts.capturing() || !p.opts.quantifier.set
}

func (v *oneOfVariant) mapChildren(mapIncludes bool, fn func(*Pattern) error, checkFrozen bool) error {
	for _, pattern := range v.patterns {
		if err := pattern.each(mapIncludes, fn, checkFrozen); err != nil {
			return err
		}
	}
	return nil
}

func (v *oneOfVariant) clone() variant {
	patterns := make([]*Pattern, len(v.patterns))
	for i, pattern := range v.patterns {
		patterns[i] = pattern.DeepClone()
	}
	return &oneOfVariant{patterns: patterns}
}

func (v *oneOfVariant) render(p *Pattern, depth int, topLevel bool) string {
	indent := strings.Repeat("  ", depth)
	output := ".OneOf([]any{"
	if topLevel {
		output = "OneOf([]any{"
	}
	for _, pattern := range v.patterns {
		output += "\n" + indent + "  " + strings.TrimLeft(pattern.Render(depth+1, true), " ") + ","
	}
	output += "\n" + indent + "}" + p.opts.render(depth) + ")"
	return output
}
