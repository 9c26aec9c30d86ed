/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/pattern"
)

// nodeKinds are the keys that select what a pattern node matches.
var nodeKinds = []string{"match", "oneOf", "matchResultOf", "recursivelyMatch", "placeholder"}

// optionKeys are the keys accepted alongside match and oneOf.
var optionKeys = []string{"tagAs", "reference", "includes", "maybe", "zeroOrMore", "oneOrMore", "atLeast", "atMost"}

// parseEntry converts a repository value. Scalars are regex sources, lists
// are include lists, and maps are ranges (when they have a begin key) or
// pattern nodes.
func parseEntry(value any, path string) (any, error) {
	switch v := value.(type) {
	case string:
		return pattern.New(v), nil
	case []any:
		return parseList(v, path)
	case map[string]any:
		if _, ok := v["begin"]; ok {
			return parseRange(v, path)
		}
		return parseNode(v, path)
	default:
		return nil, fmt.Errorf("%w: %s: unexpected %T", ErrInvalidDefinition, path, value)
	}
}

// parseList converts an include list. Strings name repository entries.
func parseList(items []any, path string) ([]any, error) {
	out := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := path + "." + strconv.Itoa(i)
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			entry, err := parseEntry(v, itemPath)
			if err != nil {
				return nil, err
			}
			out = append(out, entry)
		default:
			return nil, fmt.Errorf("%w: %s: unexpected %T", ErrInvalidDefinition, itemPath, item)
		}
	}
	return out, nil
}

func parseRange(m map[string]any, path string) (*grammar.Range, error) {
	r := &grammar.Range{}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		value := m[key]
		keyPath := path + "." + key
		var err error
		switch key {
		case "tagAs":
			r.TagAs, err = stringValue(value, keyPath)
		case "begin":
			r.Begin, err = parsePattern(value, keyPath)
		case "end":
			r.End, err = parsePattern(value, keyPath)
		case "while":
			r.While, err = parsePattern(value, keyPath)
		case "includes":
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s: expected a list", ErrInvalidDefinition, keyPath)
			}
			r.Includes, err = parseList(items, keyPath)
		default:
			err = fmt.Errorf("%w: %s: unknown range key", ErrInvalidDefinition, keyPath)
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// parsePattern converts a value that must become a single pattern: a regex
// source or a node.
func parsePattern(value any, path string) (*pattern.Pattern, error) {
	switch v := value.(type) {
	case string:
		return pattern.New(v), nil
	case map[string]any:
		return parseNode(v, path)
	default:
		return nil, fmt.Errorf("%w: %s: expected a regex source or a pattern, got %T", ErrInvalidDefinition, path, value)
	}
}

func parseNode(m map[string]any, path string) (*pattern.Pattern, error) {
	var kinds []string
	for _, kind := range nodeKinds {
		if _, ok := m[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) != 1 {
		return nil, fmt.Errorf("%w: %s: a pattern needs exactly one of %v", ErrInvalidDefinition, path, nodeKinds)
	}
	kind := kinds[0]

	opts, err := parseOptions(m, path)
	if err != nil {
		return nil, err
	}
	if len(opts) > 0 && kind != "match" && kind != "oneOf" {
		return nil, fmt.Errorf("%w: %s: %s does not take options", ErrInvalidDefinition, path, kind)
	}

	var p *pattern.Pattern
	value, keyPath := m[kind], path+"."+kind
	switch kind {
	case "match":
		if src, isSource := value.(string); isSource {
			p = pattern.New(src, opts...)
			break
		}
		var nested *pattern.Pattern
		if nested, err = parsePattern(value, keyPath); err == nil {
			p = pattern.New(nested, opts...)
		}
	case "oneOf":
		p, err = parseOneOf(value, keyPath, opts)
	default:
		var name string
		if name, err = stringValue(value, keyPath); err != nil {
			return nil, err
		}
		switch kind {
		case "matchResultOf":
			p = pattern.MatchResultOf(name)
		case "recursivelyMatch":
			p = pattern.RecursivelyMatch(name)
		case "placeholder":
			p = pattern.Placeholder(name)
		}
	}
	if err != nil {
		return nil, err
	}

	if then, ok := m["then"]; ok {
		return parseThen(p, then, path+".then")
	}
	return p, nil
}

// parseOneOf leaves a value that is not a list to pattern.OneOf, which warns
// and treats it as a single alternative.
func parseOneOf(value any, path string, opts []pattern.Option) (*pattern.Pattern, error) {
	items, ok := value.([]any)
	if !ok {
		single, err := parsePattern(value, path)
		if err != nil {
			return nil, err
		}
		return pattern.OneOf(single, opts...), nil
	}
	alternatives := make([]*pattern.Pattern, 0, len(items))
	for i, item := range items {
		alt, err := parsePattern(item, path+"."+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alt)
	}
	return pattern.OneOf(alternatives, opts...), nil
}

func parseThen(p *pattern.Pattern, value any, path string) (*pattern.Pattern, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	for i, item := range items {
		next, err := parsePattern(item, path+"."+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		p = p.Insert(next)
	}
	return p, nil
}

func parseOptions(m map[string]any, path string) ([]pattern.Option, error) {
	var opts []pattern.Option
	atLeast, atMost := -1, -1
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if slices.Contains(nodeKinds, key) || key == "then" {
			continue
		}
		if !slices.Contains(optionKeys, key) {
			return nil, fmt.Errorf("%w: %s.%s: unknown pattern key", ErrInvalidDefinition, path, key)
		}
		value, keyPath := m[key], path+"."+key
		switch key {
		case "tagAs", "reference":
			s, err := stringValue(value, keyPath)
			if err != nil {
				return nil, err
			}
			if key == "tagAs" {
				opts = append(opts, pattern.TagAs(s))
			} else {
				opts = append(opts, pattern.Reference(s))
			}
		case "includes":
			includes, err := parseIncludes(value, keyPath)
			if err != nil {
				return nil, err
			}
			opts = append(opts, pattern.Includes(includes...))
		case "maybe", "zeroOrMore", "oneOrMore":
			set, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s: expected a boolean", ErrInvalidDefinition, keyPath)
			}
			if !set {
				continue
			}
			switch key {
			case "maybe":
				opts = append(opts, pattern.Maybe())
			case "zeroOrMore":
				opts = append(opts, pattern.ZeroOrMore())
			case "oneOrMore":
				opts = append(opts, pattern.OneOrMore())
			}
		case "atLeast", "atMost":
			n, err := intValue(value, keyPath)
			if err != nil {
				return nil, err
			}
			if key == "atLeast" {
				atLeast = n
			} else {
				atMost = n
			}
		}
	}

	if atLeast >= 0 || atMost >= 0 {
		opts = append(opts, pattern.Times(max(atLeast, 0), atMost))
	}
	return opts, nil
}

func parseIncludes(value any, path string) ([]any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a list", ErrInvalidDefinition, path)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		if name, ok := item.(string); ok {
			out = append(out, name)
			continue
		}
		inline, err := parsePattern(item, path+"."+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, inline)
	}
	return out, nil
}

func stringValue(value any, path string) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: expected a string, got %T", ErrInvalidDefinition, path, value)
	}
	return s, nil
}

// intValue accepts YAML integers and JSON numbers.
func intValue(value any, path string) (int, error) {
	switch n := value.(type) {
	case int:
		return n, nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s: expected an integer, got %v", ErrInvalidDefinition, path, value)
}
