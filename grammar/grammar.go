/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package grammar assembles composed patterns into a TextMate grammar.
//
// A Grammar is a named repository of entries. Entries are composed patterns,
// begin/end ranges, lists of includes, or raw rules copied from an existing
// grammar. Compile resolves every pattern against the repository and emits
// the JSON document editors load.
package grammar

import (
	"errors"
	"maps"
	"slices"

	"bennypowers.dev/tmgrammar/pattern"
	"bennypowers.dev/tmgrammar/resolver"
)

// InitialContext is the repository entry whose patterns become the grammar's
// top level patterns.
const InitialContext = "$initial_context"

var (
	// ErrUnsupportedEntry is returned when a repository entry has a type Compile cannot emit.
	ErrUnsupportedEntry = errors.New("unsupported repository entry")

	// ErrInvalidRange is returned for ranges without a begin pattern or with
	// neither (or both) of end and while.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidRegex is returned by Validate for expressions the host engine rejects.
	ErrInvalidRegex = errors.New("invalid regular expression")
)

// Grammar is a TextMate grammar under construction.
type Grammar struct {
	Name        string
	ScopeName   string
	Version     string
	Information []string

	entries map[string]any
}

// New creates an empty grammar.
func New(name, scopeName string) *Grammar {
	return &Grammar{
		Name:      name,
		ScopeName: scopeName,
		entries:   make(map[string]any),
	}
}

// Set stores value under name, replacing any earlier entry.
func (g *Grammar) Set(name string, value any) {
	g.entries[name] = value
}

// Get returns the entry stored under name.
func (g *Grammar) Get(name string) (any, bool) {
	value, ok := g.entries[name]
	return value, ok
}

// Names returns the sorted entry names.
func (g *Grammar) Names() []string {
	return slices.Sorted(maps.Keys(g.entries))
}

// Repository returns a copy of the entries, suitable for resolving placeholders.
func (g *Grammar) Repository() pattern.Repository {
	return pattern.Repository(maps.Clone(g.entries))
}

// SetInitialContext stores the top level patterns of the grammar. Items are
// repository names or inline entries.
func (g *Grammar) SetInitialContext(items ...any) {
	g.entries[InitialContext] = items
}

// ConvertSpecificIncludes rewrites include targets in raw rules. Every
// include of one of convert is redirected to the repository entry into.
// Rules copied from an existing grammar use it to point $self and $base at
// the initial context.
func (g *Grammar) ConvertSpecificIncludes(convert []string, into string) {
	target := pattern.IncludeTarget(into)
	for name, entry := range g.entries {
		g.entries[name] = convertIncludes(entry, convert, target)
	}
}

func convertIncludes(value any, convert []string, target string) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			if include, ok := child.(string); ok && key == "include" && slices.Contains(convert, include) {
				out[key] = target
				continue
			}
			out[key] = convertIncludes(child, convert, target)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = convertIncludes(child, convert, target)
		}
		return out
	default:
		return value
	}
}

// DependencyGraph returns the graph of placeholder dependencies between
// repository entries.
func (g *Grammar) DependencyGraph() *resolver.DependencyGraph {
	deps := make(map[string][]string, len(g.entries))
	for name, entry := range g.entries {
		deps[name] = placeholdersOf(entry)
	}
	return resolver.NewDependencyGraph(deps)
}

func placeholdersOf(entry any) []string {
	var names []string
	switch e := entry.(type) {
	case *pattern.Pattern:
		names = e.Placeholders()
	case *Range:
		for _, p := range e.patterns() {
			names = append(names, p.Placeholders()...)
		}
		for _, include := range e.Includes {
			names = append(names, placeholdersOf(include)...)
		}
	case []any:
		for _, item := range e {
			names = append(names, placeholdersOf(item)...)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
