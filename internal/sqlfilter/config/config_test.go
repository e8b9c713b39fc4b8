// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/audit"
)

func TestLoad_NoFileNoFlagsReturnsDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlfilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: \":9999\"\naudit:\n  mode: all\n"), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.MetricsAddr)
	assert.Equal(t, audit.ModeAll, cfg.Audit.Mode)
	assert.Equal(t, Default().Audit.ChannelSize, cfg.Audit.ChannelSize)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlfilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: \":9999\"\n"), 0o600))

	fs := pflag.NewFlagSet("sqlfilter", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--metrics_addr=:7000"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.MetricsAddr)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
