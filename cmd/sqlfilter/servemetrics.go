// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/observability"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/config"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/xdg"
)

func newServeMetricsCmd() *cobra.Command {
	fs := pflag.NewFlagSet("serve-metrics", pflag.ContinueOnError)
	config.RegisterFlags(fs)

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve /metrics and /healthz until interrupted",
		Long: `serve-metrics starts the observability HTTP server (/metrics and
/healthz/liveness, /healthz/readiness) and blocks until SIGINT/SIGTERM.
Configuration loads from --config (or, absent that flag, the XDG config
directory's sqlfilter.yaml if present), layered under flag overrides.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMetrics(cmd, fs)
		},
	}
	cmd.Flags().AddFlagSet(fs)
	return cmd
}

func runServeMetrics(cmd *cobra.Command, fs *pflag.FlagSet) error {
	path := configFile
	if path == "" {
		if dir, err := xdg.ConfigDir(); err == nil {
			candidate := filepath.Join(dir, "sqlfilter.yaml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	cfg, err := config.Load(path, fs)
	if err != nil {
		return fmt.Errorf("sqlfilter: loading config: %w", err)
	}

	server := observability.NewServer(cfg.MetricsAddr, func() bool { return true })
	if err := server.Start(); err != nil {
		return fmt.Errorf("sqlfilter: starting observability server: %w", err)
	}

	slog.Info("serve-metrics listening", "addr", server.Addr())
	cmd.Printf("serving /metrics and /healthz on %s\n", server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
