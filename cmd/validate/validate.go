/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package validate provides the validate command for tmgrammar.
package validate

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/tmgrammar/config"
	"bennypowers.dev/tmgrammar/fs"
	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/parser"
)

// Cmd is the validate cobra command.
var Cmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate grammar definition files",
	Long: `Validate grammar definition files without writing any output.

Each definition is parsed, checked for placeholder cycles, compiled, and every
emitted expression is checked with a backtracking regex engine.`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().Bool("quiet", false, "Only output errors")
}

func run(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return Run(fs.NewOSFileSystem(), ".", args, quiet, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Run validates the given definition files, or the configured definitions
// when files is empty. Problems are written to errw.
func Run(filesystem fs.FileSystem, rootDir string, files []string, quiet bool, w, errw io.Writer) error {
	cfg := config.LoadOrDefault(filesystem, rootDir)

	if len(files) == 0 {
		expanded, err := cfg.ExpandDefinitions(filesystem, rootDir)
		if err != nil {
			return fmt.Errorf("error expanding config definitions: %w", err)
		}
		for _, def := range expanded {
			files = append(files, def.Path)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no files specified and no definitions found in config")
	}

	hasErrors := false

	for _, file := range files {
		if !filepath.IsAbs(file) {
			file = filepath.Join(rootDir, file)
		}
		if !quiet {
			fmt.Fprintf(w, "Validating %s...\n", file)
		}

		g, err := parser.ParseFile(filesystem, file)
		if err != nil {
			fmt.Fprintf(errw, "Error parsing %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		if graph := g.DependencyGraph(); graph.HasCycle() {
			fmt.Fprintf(errw, "Circular placeholder in %s: %s\n", file, strings.Join(graph.FindCycle(), " -> "))
			hasErrors = true
			continue
		}

		out, err := g.Compile()
		if err != nil {
			fmt.Fprintf(errw, "Compile error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		if err := grammar.Validate(out); err != nil {
			fmt.Fprintf(errw, "Invalid expressions in %s:\n%v\n", file, err)
			hasErrors = true
			continue
		}

		if !quiet {
			fmt.Fprintf(w, "  %d repository entries, scope: %s\n", len(out.Repository), out.ScopeName)
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	if !quiet {
		fmt.Fprintln(w, "All definitions valid.")
	}
	return nil
}
