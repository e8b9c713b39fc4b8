// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package config loads the content-filter engine's runtime settings:
// audit sink mode, the metrics HTTP bind address, and the compiled-plan
// cache's engine version. Settings layer a compiled-in default, an
// optional YAML file, and CLI flag overrides, in that order, using
// koanf's file/yaml/posflag providers (SPEC_FULL.md's ambient
// "Configuration" stack — the teacher has no config-file layer of its own
// to ground this package's shape on, so the provider order below follows
// koanf's own documented layering convention rather than a pack example).
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/audit"
)

// Config is the engine's fully-resolved runtime configuration.
type Config struct {
	// EngineVersion is this build's own semver, used by
	// internal/sqlfilter/cache to reject plans compiled for an
	// incompatible grammar version.
	EngineVersion string `koanf:"engine_version"`

	// MetricsAddr is the bind address internal/observability's server
	// listens on for /metrics. The value is passed to net.Listen as given;
	// an empty value does not disable the server.
	MetricsAddr string `koanf:"metrics_addr"`

	// CacheCapacityHint is an advisory size the cache may use to decide
	// when to log a "cache growing unbounded" warning. Zero means no
	// hint is given.
	CacheCapacityHint int `koanf:"cache_capacity_hint"`

	Audit AuditConfig `koanf:"audit"`
}

// AuditConfig configures the audit sink.
type AuditConfig struct {
	// Mode selects which events Logger.Log records and whether the write
	// is synchronous: disabled, minimal (errors only), rejects_only
	// (errors and rejects), or all (errors and rejects sync, accepts
	// async).
	Mode audit.Mode `koanf:"mode"`

	// DSN is the Postgres connection string used by the sink Mode
	// requires. Ignored when Mode is audit.ModeDisabled.
	DSN string `koanf:"dsn"`

	// WALPath is the local fallback write-ahead log file path used when a
	// synchronous write to the sink fails. An entry that finds the async
	// writer's channel full is dropped, not written to the WAL.
	WALPath string `koanf:"wal_path"`

	// ChannelSize bounds the async writer's buffered entry channel.
	ChannelSize int `koanf:"channel_size"`

	// RetentionDays is how many days of daily partitions an operator-run
	// sweep should keep before dropping the oldest. PartitionCreator only
	// creates partitions ahead of need; no component in this engine drops
	// them, so this field is a placeholder an external sweep can read.
	RetentionDays int `koanf:"retention_days"`
}

// Default returns the engine's compiled-in configuration, used as the
// base layer Load merges a file and flags on top of.
func Default() Config {
	return Config{
		EngineVersion:     "1.0.0",
		MetricsAddr:       ":9102",
		CacheCapacityHint: 4096,
		Audit: AuditConfig{
			Mode:          audit.ModeDisabled,
			WALPath:       "sqlfilter-audit.wal",
			ChannelSize:   1024,
			RetentionDays: 30,
		},
	}
}

// Load resolves a Config by layering, in increasing priority: Default(),
// the YAML file at path (skipped if path is empty; a file that cannot be
// read, including one that does not exist, is a BAD_PARAMETER error), and
// any flags set on fs. fs may be nil to skip the flag layer.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(defaultMap(def), "."), nil); err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("BAD_PARAMETER").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("ERROR").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}
	return &cfg, nil
}

// RegisterFlags adds the subset of Config overridable from the command
// line to fs, under the same dotted names as their koanf tags so
// posflag.Provider's merge in Load lines up automatically.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("metrics_addr", def.MetricsAddr, "bind address for the /metrics HTTP endpoint")
	fs.String("audit.mode", string(def.Audit.Mode), "audit sink mode: disabled, minimal, rejects_only, or all")
	fs.String("audit.dsn", def.Audit.DSN, "Postgres connection string for the audit sink")
}

// defaultMap mirrors def's koanf tags as a nested map, seeding the koanf
// instance's base layer before the file and flag layers are merged on
// top of it.
func defaultMap(def Config) map[string]any {
	return map[string]any{
		"engine_version":      def.EngineVersion,
		"metrics_addr":        def.MetricsAddr,
		"cache_capacity_hint": def.CacheCapacityHint,
		"audit": map[string]any{
			"mode":           string(def.Audit.Mode),
			"dsn":            def.Audit.DSN,
			"wal_path":       def.Audit.WALPath,
			"channel_size":   def.Audit.ChannelSize,
			"retention_days": def.Audit.RetentionDays,
		},
	}
}
