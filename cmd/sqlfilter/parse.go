// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/parser"
)

type parseResult struct {
	OK     bool   `json:"ok"`
	Offset int    `json:"offset,omitempty"`
	Error  string `json:"error,omitempty"`
	Height int    `json:"tree_height,omitempty"`
}

type parseConfig struct {
	jsonOutput bool
}

func newParseCmd() *cobra.Command {
	cfg := &parseConfig{}
	cmd := &cobra.Command{
		Use:   "parse <expression>",
		Short: "Parse an expression and report success or the error offset",
		Long: `parse lexes and parses a single expression, reporting either success (and
the parsed tree's height) or the byte offset of the first malformed
token, matching the diagnostic a reader/writer sees from filter.Create.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, cfg, args[0])
		},
	}
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output result as JSON")
	return cmd
}

func runParse(cmd *cobra.Command, cfg *parseConfig, expression string) error {
	result := parseExpression(expression)

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if result.OK {
		cmd.Printf("ok (tree height %d)\n", result.Height)
		return nil
	}
	cmd.Printf("error at offset %d: %s\n", result.Offset, result.Error)
	return nil
}

func parseExpression(expression string) parseResult {
	tree, container, err := parser.Parse([]byte(expression))
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			return parseResult{Offset: parseErr.Offset, Error: parseErr.Msg}
		}
		return parseResult{Offset: container.ErrPos, Error: err.Error()}
	}
	return parseResult{OK: true, Height: treeHeight(tree, tree.Root())}
}

func treeHeight(tr *ast.Tree, root ast.NodeIndex) int {
	if root == ast.NoNode {
		return -1
	}
	return tr.Node(root).Height
}
