// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"github.com/spf13/cobra"
)

// configFile is the --config flag shared by every subcommand that loads
// runtime configuration (serve-metrics today; eval/explain take their
// inputs as explicit flags instead, since they have no long-lived state).
var configFile string

// newRootCmd creates the root command for the sqlfilter CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlfilter",
		Short: "Inspect, evaluate, and serve the DDS content-filter engine",
		Long: `sqlfilter is an operator CLI for the DDS content-filter engine: it parses
and explains filter expressions, evaluates a compiled filter against a
sample without a running DDS participant, prints the filter description
JSON Schema, and serves /metrics and /healthz standalone.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newExplainCmd())
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newServeMetricsCmd())

	return cmd
}
