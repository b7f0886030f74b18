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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insys-icom/medusa/internal/history"
)

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report recorded run history from the configured database",
		RunE:  runStats,
	}
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.History.DatabaseURL == "" {
		return errors.New("medusa stats: no history.database_url configured in medusa.yml")
	}

	store, err := history.Open(cmd.Context(), cfg.History.DatabaseURL)
	if err != nil {
		return fmt.Errorf("medusa stats: opening history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	summary, err := store.Summary(cmd.Context())
	if err != nil {
		return fmt.Errorf("medusa stats: %w", err)
	}
	if len(summary) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "medusa stats: no run history recorded yet")
		return nil
	}

	for _, oc := range summary {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-20s %d\n", oc.Stage, oc.Outcome, oc.Count)
	}
	return nil
}
