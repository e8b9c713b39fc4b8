// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/cache"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/config"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
)

type evalConfig struct {
	topicPath       string
	descriptionPath string
	samplePath      string
	side            string
	engineVersion   string
	jsonOutput      bool
}

func newEvalCmd() *cobra.Command {
	cfg := &evalConfig{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a filter description against a sample",
		Long: `eval builds a Filter from a topic descriptor and a filter description, then
evaluates it against a sample's field values, reporting accept or reject.
This exercises the same Create/ReaderAccept/WriterAccept path a reader or
writer takes, without a running DDS participant.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEval(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.topicPath, "topic", "", "path to a topic descriptor JSON document (required)")
	cmd.Flags().StringVar(&cfg.descriptionPath, "description", "", "path to a filter description JSON document (required)")
	cmd.Flags().StringVar(&cfg.samplePath, "sample", "", "path to a sample field-value JSON document (required)")
	cmd.Flags().StringVar(&cfg.side, "side", "reader", `which accept path to evaluate: "reader" or "writer"`)
	cmd.Flags().StringVar(&cfg.engineVersion, "engine-version", "1.0.0", "engine semver used to gate the compiled-plan cache")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output result as JSON")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("sample")
	return cmd
}

type evalResult struct {
	Accepted bool   `json:"accepted"`
	Side     string `json:"side"`
}

func runEval(cmd *cobra.Command, cfg *evalConfig) error {
	topicDesc, err := loadTopicDescriptor(cfg.topicPath)
	if err != nil {
		return err
	}

	desc, grammarVersion, err := loadDescription(cfg.descriptionPath)
	if err != nil {
		return err
	}

	sampleData, err := os.ReadFile(cfg.samplePath)
	if err != nil {
		return fmt.Errorf("sqlfilter: reading sample file: %w", err)
	}
	var sampleDoc fieldValuesDoc
	if err := json.Unmarshal(sampleData, &sampleDoc); err != nil {
		return fmt.Errorf("sqlfilter: decoding sample file: %w", err)
	}

	c, err := cache.New(cfg.engineVersion, config.Default().CacheCapacityHint)
	if err != nil {
		return err
	}

	f, err := c.Create(0, grammarVersion, desc, topicDesc, filter.DefaultEntropy())
	if err != nil {
		return err
	}

	values, err := bindValues(f.Reduced(), sampleDoc)
	if err != nil {
		return err
	}

	var accepted bool
	switch cfg.side {
	case "reader":
		accepted, err = f.ReaderAccept(values, filter.Sample{})
	case "writer":
		accepted, err = f.WriterAccept(values, filter.Sample{})
	default:
		return fmt.Errorf("sqlfilter: --side must be \"reader\" or \"writer\", got %q", cfg.side)
	}
	if err != nil {
		return err
	}

	result := evalResult{Accepted: accepted, Side: cfg.side}
	if cfg.jsonOutput {
		data, merr := json.MarshalIndent(result, "", "  ")
		if merr != nil {
			return merr
		}
		cmd.Println(string(data))
		return nil
	}

	if accepted {
		cmd.Println("accept")
	} else {
		cmd.Println("reject")
	}
	return nil
}
