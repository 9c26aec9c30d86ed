/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package inspect provides the inspect command for tmgrammar.
package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/tmgrammar/fs"
	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/parser"
	"bennypowers.dev/tmgrammar/pattern"
)

// Cmd is the inspect cobra command.
var Cmd = &cobra.Command{
	Use:   "inspect <file> [entries...]",
	Short: "Show how repository entries are composed and what they compile to",
	Long: `Inspect the repository entries of a grammar definition.

For each entry, print its kind, the composition that builds it, the entries it
depends on and is used by, and the regular expression it compiles to.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("format", "table", "Output format: table, json")
	Cmd.Flags().Bool("scramble", false, "Show patterns with scrambled reference names")
}

// Entry describes one inspected repository entry.
type Entry struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Composition  string   `json:"composition,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	Match        string   `json:"match,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	scramble, _ := cmd.Flags().GetBool("scramble")

	g, err := parser.ParseFile(fs.NewOSFileSystem(), args[0])
	if err != nil {
		return err
	}

	entries := Inspect(g, args[1:], scramble)

	switch format {
	case "json":
		return outputJSON(cmd.OutOrStdout(), entries)
	default:
		return outputTable(cmd.OutOrStdout(), entries)
	}
}

// Inspect describes the named entries of g, or every entry when names is empty.
// Unknown names are reported as entries of kind "missing".
func Inspect(g *grammar.Grammar, names []string, scramble bool) []Entry {
	if len(names) == 0 {
		names = g.Names()
	}

	graph := g.DependencyGraph()
	repo := g.Repository()

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		value, ok := g.Get(name)
		if !ok {
			entries = append(entries, Entry{Name: name, Kind: "missing"})
			continue
		}

		entry := Entry{
			Name:         name,
			Kind:         kindOf(value),
			Dependencies: slices.Sorted(slices.Values(graph.Dependencies(name))),
			Dependents:   slices.Sorted(slices.Values(graph.Dependents(name))),
		}

		switch v := value.(type) {
		case *pattern.Pattern:
			describePattern(&entry, v, repo, scramble)
		case *grammar.Range:
			if v.Begin != nil {
				describePattern(&entry, v.Begin, repo, scramble)
			}
		}

		entries = append(entries, entry)
	}

	return entries
}

func describePattern(entry *Entry, p *pattern.Pattern, repo pattern.Repository, scramble bool) {
	if scramble {
		p = p.ScrambleReferences()
	}
	entry.Composition = p.String()

	resolved, err := p.Resolve(repo)
	if err != nil {
		entry.Error = err.Error()
		return
	}
	match, err := resolved.Compile()
	if err != nil {
		entry.Error = err.Error()
		return
	}
	entry.Match = match
}

func kindOf(value any) string {
	switch value.(type) {
	case *pattern.Pattern:
		return "pattern"
	case *grammar.Range:
		return "range"
	case []any, []string:
		return "list"
	default:
		return "rule"
	}
}

func outputTable(w io.Writer, entries []Entry) error {
	for _, entry := range entries {
		fmt.Fprintf(w, "%-24s %s\n", entry.Name, entry.Kind)
		if len(entry.Dependencies) > 0 {
			fmt.Fprintf(w, "  depends on: %s\n", strings.Join(entry.Dependencies, ", "))
		}
		if len(entry.Dependents) > 0 {
			fmt.Fprintf(w, "  used by: %s\n", strings.Join(entry.Dependents, ", "))
		}
		if entry.Composition != "" {
			for line := range strings.SplitSeq(entry.Composition, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		if entry.Match != "" {
			fmt.Fprintf(w, "  match: %s\n", entry.Match)
		}
		if entry.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", entry.Error)
		}
	}
	return nil
}

func outputJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}
