// Package main provides the robogram CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "robogram",
	Short: "Graph grammar engine for robot designs",
	Long: `robogram loads graph grammars from DOT or Lisp files, rewrites design
graphs with their rules and compiles the results into robots and meshes.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [name...]",
	Short: "List loaded graphs and rules, or print the named ones in full",
	RunE:  runInspect,
}

var matchCmd = &cobra.Command{
	Use:   "match <rule> <graph>",
	Short: "List the matches of a rule's left-hand side in a graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runMatch,
}

var applyCmd = &cobra.Command{
	Use:   "apply <rule> <graph>",
	Short: "Apply a rule at one match and print the resulting graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runApply,
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Apply a rule sequence to the start graph",
	Args:  cobra.NoArgs,
	RunE:  runDerive,
}

var buildCmd = &cobra.Command{
	Use:   "build [graph]",
	Short: "Validate a design and compile it into a robot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

var meshCmd = &cobra.Command{
	Use:   "mesh [graph]",
	Short: "Tessellate a design's links and write the meshes as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMesh,
}

var (
	configPath   string
	logLevelFlag string
	grammarFlags []string
	startFlag    string
	rulesFlag    string
	matchIndex   int
	jsonFlag     bool
	outPath      string
	meshCells    int
)

// cfg and logger are set by setup before any subcommand runs.
var (
	cfg    *Config
	logger *slog.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", defaultConfigFile, "Path to the run config")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringSliceVarP(&grammarFlags, "grammar", "g", nil, "Grammar files or glob patterns (overrides config)")
	pf.StringVar(&startFlag, "start", "", "Start graph for derivations (overrides config)")
	pf.StringVar(&rulesFlag, "rules", "", `Rule sequence such as "0, 1:2" (overrides config)`)

	applyCmd.Flags().IntVar(&matchIndex, "match", 0, "Index of the match to rewrite")
	buildCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output the robot as JSON")
	meshCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write meshes to this file instead of stdout")
	meshCmd.Flags().IntVar(&meshCells, "cells", 0, "Marching cubes cells along the longest axis (overrides config)")

	rootCmd.AddCommand(inspectCmd, matchCmd, applyCmd, deriveCmd, buildCmd, meshCmd)
}

// setup loads the run config, applies flag overrides and installs the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	c.override(cmd.Flags())
	if err := c.validate(); err != nil {
		return err
	}
	l, err := newLogger(cmd.ErrOrStderr(), c.LogLevel)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
