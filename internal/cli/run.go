// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insys-icom/medusa/internal/config"
	"github.com/insys-icom/medusa/internal/dispatch"
	"github.com/insys-icom/medusa/internal/expand"
	"github.com/insys-icom/medusa/internal/history"
	"github.com/insys-icom/medusa/internal/logging"
	"github.com/insys-icom/medusa/internal/orchestrator"
	"github.com/insys-icom/medusa/internal/run"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PATH [PATH ...] [-- ROBOT_ARGS...]",
		Short: "Discover, expand, and run Robot Framework suites under PATH",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
		exists, err := config.Exists(path)
		if err != nil {
			return nil, err
		}
		if !exists {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logger := logging.NewLogger(verbose)

	// Suites with no medusa:timeout entry fall back to the configured
	// scheduler default rather than internal/expand's own hardcoded one.
	expand.DefaultTimeout = cfg.DefaultTimeout.Timeout()

	roots := args
	extraArgs := []string{}
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		roots = args[:dash]
		extraArgs = args[dash:]
	}

	paths, err := orchestrator.DiscoverSuites(roots)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("medusa run: no .robot suite files found under %v", roots)
	}

	runs, err := orchestrator.ExpandAll(paths)
	if err != nil {
		return err
	}

	if dryRun {
		return printDryRun(cmd, cfg.RobotBin, runs, extraArgs)
	}

	store, err := history.Open(cmd.Context(), cfg.History.DatabaseURL)
	if err != nil {
		return fmt.Errorf("medusa run: opening history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	opts := orchestrator.Options{
		RobotBin:  cfg.RobotBin,
		OutputDir: cfg.OutputDir,
		ExtraArgs: extraArgs,
		Logger:    logger,
		History:   store,
	}

	tracker, err := orchestrator.Execute(cmd.Context(), runs, opts)
	if err != nil {
		return err
	}

	return reportResults(cmd, runs, tracker)
}

// printDryRun shows the dispatch plan (the exact robot invocation per Run)
// without starting any process.
func printDryRun(cmd *cobra.Command, robotBin string, runs []*run.Run, extraArgs []string) error {
	for _, r := range runs {
		execCmd, err := dispatch.ToExecutilCommand(robotBin, r, extraArgs)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [stage=%s]: %s %v\n", r.ID, r.Stage, execCmd.Name, execCmd.Args)
	}
	return nil
}

// reportResults prints one line per Run's terminal outcome and returns a
// non-nil error (causing a non-zero exit code) if any Run did not exit
// cleanly or exited with a non-zero exit code.
func reportResults(cmd *cobra.Command, runs []*run.Run, tracker *run.Tracker) error {
	failures := 0
	for _, r := range runs {
		outcome := tracker.Outcome(r.ID)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [stage=%s]: %s (exit %d)\n", r.ID, r.Stage, outcome, r.ExitCode)
		if outcome != run.OutcomeExitedClean || r.ExitCode != 0 {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("medusa run: %d run(s) did not exit cleanly", failures)
	}
	return nil
}
