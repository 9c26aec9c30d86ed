/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package coverage provides the coverage command for tmgrammar.
package coverage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"bennypowers.dev/tmgrammar/coverage"
	"bennypowers.dev/tmgrammar/fs"
)

// Cmd is the coverage cobra command.
var Cmd = &cobra.Command{
	Use:   "coverage <grammar.json...>",
	Short: "Report which grammar patterns a tokenizer run exercised",
	Long: `Report pattern coverage for compiled TextMate grammars.

Samples are read as JSON lines, one object per attempted pattern:

  {"source": "source.perl:12", "time": 0.02, "chosen": true, "failure": false, "onlyPattern": false}

The source is the grammar scope name and the 0-based line of the pattern key.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("samples", "s", "-", "JSON lines file of recorded samples (- for stdin)")
	Cmd.Flags().Float64("fail-under", 0, "Fail when any grammar's chosen percentage is below this")
}

func run(cmd *cobra.Command, args []string) error {
	samplesPath, _ := cmd.Flags().GetString("samples")
	failUnder, _ := cmd.Flags().GetFloat64("fail-under")

	var samples io.Reader = cmd.InOrStdin()
	if samplesPath != "-" {
		f, err := os.Open(samplesPath)
		if err != nil {
			return fmt.Errorf("error opening samples: %w", err)
		}
		defer f.Close()
		samples = f
	}

	summaries, err := Run(fs.NewOSFileSystem(), args, samples, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	return checkThreshold(summaries, failUnder)
}

// checkThreshold fails on the first summary whose chosen percentage is below
// failUnder. A zero threshold always passes.
func checkThreshold(summaries []coverage.Summary, failUnder float64) error {
	if failUnder <= 0 {
		return nil
	}
	for _, s := range summaries {
		if s.Chosen*100 < failUnder {
			return fmt.Errorf("%s: %.2f%% chosen is below %.2f%%", s.ScopeName, s.Chosen*100, failUnder)
		}
	}
	return nil
}

// Run loads each grammar into a registry, records the samples, and writes a
// report for every grammar that has recorded locations.
func Run(filesystem fs.FileSystem, grammars []string, samples io.Reader, w io.Writer) ([]coverage.Summary, error) {
	registry := coverage.NewRegistry()

	for _, path := range grammars {
		data, err := filesystem.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		scopeName, err := scopeNameOf(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := registry.Load(data, scopeName); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	recorded, err := coverage.ReadSamples(samples)
	if err != nil {
		return nil, fmt.Errorf("error reading samples: %w", err)
	}
	if err := registry.RecordSamples(recorded); err != nil {
		return nil, err
	}

	return registry.ReportAll(w), nil
}

func scopeNameOf(data []byte) (string, error) {
	var header struct {
		ScopeName string `json:"scopeName"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &header); err != nil {
		return "", err
	}
	if header.ScopeName == "" {
		return "", fmt.Errorf("grammar has no scopeName")
	}
	return header.ScopeName, nil
}
