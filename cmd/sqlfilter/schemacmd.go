// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the filter description JSON Schema",
		Long:  `schema prints the JSON Schema a --description document passed to "eval" must satisfy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := schema.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Print(string(data))
			return nil
		},
	}
}
