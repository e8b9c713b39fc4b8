// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

type explainConfig struct {
	topicPath   string
	fieldFilter string
	format      string
}

// explainDoc is the --format yaml rendering of runExplain's result: a tree
// dump plus the reduced field set, both already filtered.
type explainDoc struct {
	Tree       string   `yaml:"tree"`
	Fields     []string `yaml:"fields"`
	Parameters []int    `yaml:"parameters,omitempty"`
}

func newExplainCmd() *cobra.Command {
	cfg := &explainConfig{}
	cmd := &cobra.Command{
		Use:   "explain <expression>",
		Short: "Show the optimized tree and reduced field set for an expression",
		Long: `explain compiles an expression (parse plus constant-fold/short-circuit
optimization) and prints the resulting tree and the reduced topic field
set: the fields the optimized expression still references, in the order
filter.Reduced() would return them. With --topic, the reduced set is
cross-checked against the supplied topic descriptor; with --fields, only
field names matching the glob pattern are listed (gobwas/glob, '.' as the
segment separator, e.g. "d.*" or "**"). --format selects "text" (default,
an indented s-expression dump) or "yaml" (a structured document).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, cfg, args[0])
		},
	}
	cmd.Flags().StringVar(&cfg.topicPath, "topic", "", "path to a topic descriptor JSON document")
	cmd.Flags().StringVar(&cfg.fieldFilter, "fields", "**", "glob pattern restricting which reduced fields are listed")
	cmd.Flags().StringVar(&cfg.format, "format", "text", `output format: "text" or "yaml"`)
	return cmd
}

func runExplain(cmd *cobra.Command, cfg *explainConfig, expression string) error {
	tmpl, err := filter.Compile(expression)
	if err != nil {
		return err
	}

	pattern, err := glob.Compile(cfg.fieldFilter, '.')
	if err != nil {
		return fmt.Errorf("sqlfilter: invalid --fields pattern %q: %w", cfg.fieldFilter, err)
	}

	var topicDesc topic.Descriptor
	if cfg.topicPath != "" {
		topicDesc, err = loadTopicDescriptor(cfg.topicPath)
		if err != nil {
			return fmt.Errorf("sqlfilter: loading --topic descriptor: %w", err)
		}
	}

	var fields []string
	for _, name := range tmpl.VarNames {
		if !pattern.Match(name) {
			continue
		}
		line := name
		if cfg.topicPath != "" {
			if f, ok := topicDesc.Field(name); ok {
				line += " (" + f.Kind.String() + ")"
			} else {
				line += " (not in topic descriptor)"
			}
		}
		fields = append(fields, line)
	}

	tree := dumpTree(tmpl.Tree, tmpl.Root, 0)

	if cfg.format == "yaml" {
		doc := explainDoc{Tree: tree, Fields: fields, Parameters: tmpl.ParamIndices}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("sqlfilter: marshaling explain document: %w", err)
		}
		cmd.Print(string(data))
		return nil
	}

	cmd.Println("tree:")
	cmd.Println(tree)
	cmd.Println("referenced fields:")
	for _, line := range fields {
		cmd.Println("  " + line)
	}
	if len(tmpl.ParamIndices) > 0 {
		cmd.Printf("parameters: %v\n", tmpl.ParamIndices)
	}
	return nil
}

// dumpTree renders tr's subtree rooted at n as an indented s-expression,
// one line per node.
func dumpTree(tr *ast.Tree, n ast.NodeIndex, depth int) string {
	if n == ast.NoNode {
		return ""
	}
	node := tr.Node(n)
	indent := strings.Repeat("  ", depth)
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", indent, describeToken(node.Tok))
	if left := dumpTree(tr, node.Left, depth+1); left != "" {
		b.WriteString(left)
	}
	if right := dumpTree(tr, node.Right, depth+1); right != "" {
		b.WriteString(right)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeToken(tok token.Token) string {
	switch tok.Kind {
	case token.INTEGER:
		return fmt.Sprintf("INTEGER %d", tok.I)
	case token.FLOAT:
		return fmt.Sprintf("FLOAT %g", tok.F)
	case token.STRING:
		return fmt.Sprintf("STRING %q", string(tok.S))
	case token.BLOB:
		return fmt.Sprintf("BLOB %x", tok.S)
	case token.ID:
		return fmt.Sprintf("ID %s", string(tok.S))
	default:
		return tok.Kind.String()
	}
}
