// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package cli wires together the medusa root Cobra command and its
// subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand constructs the medusa root Cobra command.
func NewRootCommand() *cobra.Command {
	version := os.Getenv("MEDUSA_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "medusa",
		Short:         "medusa – parallel Robot Framework suite orchestrator",
		Long:          "medusa schedules Robot Framework suite runs in parallel while arbitrating shared-resource conflicts declared through medusa:* suite metadata.",
		SilenceUsage:  true, // don't dump usage on user errors
		SilenceErrors: true, // centralize error printing in main()
	}

	// Global flags - registered in lexicographic order for deterministic help output
	cmd.PersistentFlags().StringP("config", "c", "", "path to medusa.yml")
	cmd.PersistentFlags().Bool("dry-run", false, "show the dispatch plan without running anything")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Subcommands - kept in lexicographic order by .Use for deterministic
	// --help output.
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of medusa",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "medusa version %s\n", version)
		},
	})

	return cmd
}
