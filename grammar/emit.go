/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package grammar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/tmgrammar/fs"
	"bennypowers.dev/tmgrammar/internal/logger"
	"bennypowers.dev/tmgrammar/pattern"
)

// Output is the emitted TextMate grammar document.
type Output struct {
	Information []string       `json:"information_for_contributors,omitempty"`
	Version     string         `json:"version"`
	Name        string         `json:"name"`
	ScopeName   string         `json:"scopeName"`
	Patterns    []any          `json:"patterns"`
	Repository  map[string]any `json:"repository"`
}

// Compile resolves and flattens every repository entry. Entries are compiled
// in dependency order, and a placeholder cycle anywhere in the repository
// fails the whole grammar.
func (g *Grammar) Compile() (*Output, error) {
	order, err := g.DependencyGraph().TopologicalSort()
	if err != nil {
		return nil, err
	}

	repo := g.Repository()
	out := &Output{
		Information: g.Information,
		Version:     g.Version,
		Name:        g.Name,
		ScopeName:   g.ScopeName,
		Patterns:    []any{},
		Repository:  make(map[string]any, len(g.entries)),
	}
	if out.Name == "" {
		out.Name = DisplayName(g.ScopeName)
	}

	for _, name := range order {
		entry, ok := g.entries[name]
		if !ok {
			continue
		}
		rule, err := compileEntry(entry, repo)
		if err != nil {
			return nil, fmt.Errorf("repository entry %q: %w", name, err)
		}
		out.Repository[name] = rule
	}

	if initial, ok := g.entries[InitialContext]; ok {
		items, isList := initial.([]any)
		if !isList {
			items = []any{initial}
		}
		if out.Patterns, err = compileList(items, repo); err != nil {
			return nil, fmt.Errorf("%s: %w", InitialContext, err)
		}
	}

	logger.Debug("compiled %d repository entries for %s", len(out.Repository), g.ScopeName)
	return out, nil
}

func compileEntry(entry any, repo pattern.Repository) (any, error) {
	switch e := entry.(type) {
	case *pattern.Pattern:
		resolved, err := e.Resolve(repo)
		if err != nil {
			return nil, err
		}
		return resolved.Tag()
	case *Range:
		return e.compile(repo)
	case []any:
		patterns, err := compileList(e, repo)
		if err != nil {
			return nil, err
		}
		return pattern.Rule{"patterns": patterns}, nil
	case []string:
		items := make([]any, len(e))
		for i, name := range e {
			items[i] = name
		}
		return compileEntry(items, repo)
	case string:
		return includeRule(e, repo), nil
	case map[string]any:
		return e, nil
	case pattern.Rule:
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedEntry, entry)
	}
}

func compileList(items []any, repo pattern.Repository) ([]any, error) {
	patterns := make([]any, 0, len(items))
	for i, item := range items {
		rule, err := compileEntry(item, repo)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		patterns = append(patterns, rule)
	}
	return patterns, nil
}

func includeRule(name string, repo pattern.Repository) map[string]any {
	target := pattern.IncludeTarget(name)
	if local, ok := strings.CutPrefix(target, "#"); ok {
		if _, exists := repo[local]; !exists {
			logger.Warn("include %s does not name a repository entry", target)
		}
	}
	return map[string]any{"include": target}
}

// DisplayName derives a grammar name from its scope: source.perl becomes Perl.
func DisplayName(scopeName string) string {
	name := scopeName
	for _, prefix := range []string{"source.", "text."} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = strings.ReplaceAll(name, ".", " ")
	return cases.Title(language.English).String(name)
}

// JSON encodes the grammar as indented JSON without HTML escaping, so
// expressions keep their literal <, > and &.
func (o *Output) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the grammar JSON to path, creating parent directories.
func (o *Output) Save(filesystem fs.FileSystem, path string) error {
	data, err := o.JSON()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", o.ScopeName, err)
	}
	if err := filesystem.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := filesystem.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
