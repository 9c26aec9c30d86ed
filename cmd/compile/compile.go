/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package compile provides the compile command for tmgrammar.
package compile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/tmgrammar/config"
	"bennypowers.dev/tmgrammar/fs"
	"bennypowers.dev/tmgrammar/grammar"
	"bennypowers.dev/tmgrammar/parser"
)

// Cmd is the compile cobra command.
var Cmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile grammar definitions to TextMate JSON",
	Long: `Compile grammar definition files (YAML or JSON with comments) into TextMate grammar JSON.

Without arguments, the definitions listed in .config/tmgrammar.{yaml,yml,json} are compiled.

Examples:
  # Compile every configured definition
  tmgrammar compile

  # Compile one file into a custom directory and check the emitted expressions
  tmgrammar compile --out-dir build --validate grammars/perl.yaml`,
	Args: cobra.ArbitraryArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("out-dir", "o", "", "Output directory (default: config outDir or syntaxes)")
	Cmd.Flags().Bool("validate", false, "Check every emitted expression with a backtracking regex engine")
	Cmd.Flags().Bool("quiet", false, "Only output errors")
	_ = viper.BindPFlag("out-dir", Cmd.Flags().Lookup("out-dir"))
	_ = viper.BindPFlag("validate", Cmd.Flags().Lookup("validate"))
}

// Options controls a compile run.
type Options struct {
	// Files are definition paths; when empty the configured definitions are used.
	Files    []string
	OutDir   string
	Validate bool
	Quiet    bool
}

func run(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")

	opts := Options{
		Files:    args,
		OutDir:   viper.GetString("out-dir"),
		Validate: viper.GetBool("validate"),
		Quiet:    quiet,
	}
	return Run(fs.NewOSFileSystem(), ".", opts, cmd.OutOrStdout())
}

// Run compiles definitions found relative to rootDir and writes the grammars.
// Every definition is attempted; the error reports how many failed.
func Run(filesystem fs.FileSystem, rootDir string, opts Options, w io.Writer) error {
	cfg := config.LoadOrDefault(filesystem, rootDir)
	if opts.OutDir != "" {
		cfg.OutDir = opts.OutDir
	}
	validate := opts.Validate || cfg.Validate

	var defs []config.Definition
	if len(opts.Files) > 0 {
		for _, file := range opts.Files {
			if !filepath.IsAbs(file) {
				file = filepath.Join(rootDir, file)
			}
			defs = append(defs, config.Definition{Path: file})
		}
	} else {
		expanded, err := cfg.ExpandDefinitions(filesystem, rootDir)
		if err != nil {
			return fmt.Errorf("error expanding config definitions: %w", err)
		}
		defs = expanded
	}

	if len(defs) == 0 {
		return fmt.Errorf("no files specified and no definitions found in config")
	}

	failed := 0
	for _, def := range defs {
		output, err := compileDefinition(filesystem, cfg, rootDir, def, validate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error compiling %s: %v\n", def.Path, err)
			failed++
			continue
		}
		if !opts.Quiet {
			fmt.Fprintf(w, "%s -> %s\n", def.Path, output)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d definitions failed to compile", failed, len(defs))
	}
	return nil
}

func compileDefinition(filesystem fs.FileSystem, cfg *config.Config, rootDir string, def config.Definition, validate bool) (string, error) {
	g, err := parser.ParseFile(filesystem, def.Path)
	if err != nil {
		return "", err
	}

	out, err := g.Compile()
	if err != nil {
		return "", err
	}

	if validate {
		if err := grammar.Validate(out); err != nil {
			return "", err
		}
	}

	output := cfg.OutputPath(def, rootDir, out.ScopeName)
	if err := out.Save(filesystem, output); err != nil {
		return "", err
	}
	return output, nil
}
