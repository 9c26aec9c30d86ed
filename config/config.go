/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides project configuration for grammar builds.
package config

import (
	"encoding/json"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultOutDir is where compiled grammars are written when no outDir is configured.
const DefaultOutDir = "syntaxes"

// Config represents the grammar build configuration.
type Config struct {
	// Definitions specifies grammar definition files to compile (paths or globs).
	Definitions []DefinitionSpec `yaml:"definitions" json:"definitions"`

	// OutDir is the directory compiled grammars are written to.
	OutDir string `yaml:"outDir" json:"outDir"`

	// Validate checks every emitted expression after compiling.
	Validate bool `yaml:"validate" json:"validate"`
}

// DefinitionSpec represents a definition file specification.
// It can be specified as a simple string path or as an object with overrides.
type DefinitionSpec struct {
	// Path is the file path (supports globs).
	Path string `yaml:"path" json:"path"`

	// Output overrides the output file for this definition.
	Output string `yaml:"output" json:"output"`
}

// UnmarshalYAML handles both string and object forms for DefinitionSpec.
func (d *DefinitionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Path = node.Value
		return nil
	}

	type rawDefinitionSpec DefinitionSpec
	return node.Decode((*rawDefinitionSpec)(d))
}

// UnmarshalJSON handles both string and object forms for DefinitionSpec.
func (d *DefinitionSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Path = s
		return nil
	}

	type rawDefinitionSpec DefinitionSpec
	return json.Unmarshal(data, (*rawDefinitionSpec)(d))
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		OutDir: DefaultOutDir,
	}
}

// OutputPath returns where the grammar with scopeName compiled from def is
// written. The definition's own output takes precedence over OutDir.
func (c *Config) OutputPath(def Definition, rootDir, scopeName string) string {
	if def.Output != "" {
		return def.Output
	}

	outDir := c.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(rootDir, outDir)
	}
	return filepath.Join(outDir, scopeName+".tmLanguage.json")
}

// DefinitionPaths returns the list of paths from all DefinitionSpecs.
func (c *Config) DefinitionPaths() []string {
	paths := make([]string, 0, len(c.Definitions))
	for _, spec := range c.Definitions {
		paths = append(paths, spec.Path)
	}
	return paths
}
