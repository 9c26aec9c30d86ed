/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for tmgrammar.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/tmgrammar/cmd/compile"
	"bennypowers.dev/tmgrammar/cmd/coverage"
	"bennypowers.dev/tmgrammar/cmd/inspect"
	"bennypowers.dev/tmgrammar/cmd/validate"
	"bennypowers.dev/tmgrammar/cmd/version"
	"bennypowers.dev/tmgrammar/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tmgrammar",
	Short: "Compose TextMate grammars from declarative pattern definitions",
	Long: `tmgrammar compiles grammar definitions, built from composable regex patterns,
into TextMate grammar JSON, and reports how much of a grammar a test run exercised.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(viper.GetBool("verbose"))
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix("TMGRAMMAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(compile.Cmd)
	rootCmd.AddCommand(coverage.Cmd)
	rootCmd.AddCommand(inspect.Cmd)
	rootCmd.AddCommand(validate.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
