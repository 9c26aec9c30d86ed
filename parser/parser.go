/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package parser reads declarative grammar definition files.
//
// A definition is a YAML or JSON (with comments) document describing the
// grammar's metadata, its top level patterns and a repository of composed
// patterns, ranges and include lists:
//
//	scopeName: source.perl
//	patterns: [using_statement, numbers]
//	repository:
//	  numbers: {match: '\d+', tagAs: constant.numeric}
//	  operators: {oneOf: ['==', '!='], tagAs: keyword.operator}
//	  using_statement:
//	    tagAs: meta.import
//	    begin: {match: use, tagAs: keyword.other.use, then: ['\s+', {match: '\w+', tagAs: entity.name.package}]}
//	    end: {placeholder: semicolon}
//
// Rules listed under raw are copied into the repository unchanged.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/tmgrammar/fs"
	"bennypowers.dev/tmgrammar/grammar"
)

// ErrInvalidDefinition is returned for documents that do not describe a grammar.
var ErrInvalidDefinition = errors.New("invalid grammar definition")

// definition is the top level of a definition file.
type definition struct {
	Name            string         `json:"name" yaml:"name"`
	ScopeName       string         `json:"scopeName" yaml:"scopeName"`
	Version         string         `json:"version" yaml:"version"`
	Information     []string       `json:"information" yaml:"information"`
	Patterns        []any          `json:"patterns" yaml:"patterns"`
	Repository      map[string]any `json:"repository" yaml:"repository"`
	Raw             map[string]any `json:"raw" yaml:"raw"`
	ConvertIncludes []string       `json:"convertIncludes" yaml:"convertIncludes"`
}

// Parse builds a grammar from definition data.
func Parse(data []byte) (*grammar.Grammar, error) {
	var def definition

	cleanJSON := jsonc.ToJSON(data)
	if isLikelyJSON(cleanJSON) {
		if err := json.Unmarshal(cleanJSON, &def); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		def.Patterns = normalize(def.Patterns).([]any)
		def.Repository = normalizeMap(def.Repository)
		def.Raw = normalizeMap(def.Raw)
	}

	return build(&def)
}

// ParseFile reads and parses the definition at path.
func ParseFile(filesystem fs.FileSystem, path string) (*grammar.Grammar, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func build(def *definition) (*grammar.Grammar, error) {
	if def.ScopeName == "" {
		return nil, fmt.Errorf("%w: missing scopeName", ErrInvalidDefinition)
	}

	g := grammar.New(def.Name, def.ScopeName)
	g.Version = def.Version
	g.Information = def.Information

	for name, rule := range def.Raw {
		g.Set(name, rule)
	}
	if len(def.ConvertIncludes) > 0 {
		g.ConvertSpecificIncludes(def.ConvertIncludes, grammar.InitialContext)
	}

	for name, value := range def.Repository {
		entry, err := parseEntry(value, "repository."+name)
		if err != nil {
			return nil, err
		}
		g.Set(name, entry)
	}

	if def.Patterns != nil {
		items, err := parseList(def.Patterns, "patterns")
		if err != nil {
			return nil, err
		}
		g.SetInitialContext(items...)
	}
	return g, nil
}

// isLikelyJSON checks if data appears to be JSON rather than YAML.
// JSON typically starts with '{' (optionally preceded by whitespace/BOM).
func isLikelyJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case 0xEF, 0xBB, 0xBF: // UTF-8 BOM
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return normalize(m).(map[string]any)
}

// normalize recursively converts map[any]any to map[string]any.
// YAML with non-string keys creates map[any]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case map[any]any:
		result := make(map[string]any, len(x))
		for k, val := range x {
			result[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return result
	case []any:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	default:
		return v
	}
}
