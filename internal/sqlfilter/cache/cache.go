// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package cache provides a compiled-plan cache for the content-filter
// engine: a read-through cache over filter.Compile keyed by (expression
// text, grammar version), so repeated filter.Create calls for the same
// expression text across many reader/writer instances pay the parse+build
// cost once. Grounded on the teacher's internal/access/policy/cache.go
// (RWMutex-guarded map swap, NewCache-wraps-a-compiler shape), adapted from
// a LISTEN/NOTIFY-invalidated policy snapshot to a pure compile cache —
// compiled expression templates never go stale on their own, so there is no
// analogue of the teacher's staleness threshold or reload loop.
package cache

import (
	"log/slog"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/metrics"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

// planKey identifies one cached compiled template. A description's declared
// grammar version participates in the key (rather than being checked once
// globally) so a cache instance can simultaneously serve hosts declaring
// different compatible minor versions without cross-contaminating plans.
type planKey struct {
	expression     string
	grammarVersion string
}

// Cache is a concurrent-safe compiled-plan cache. The zero value is not
// usable; construct with New.
type Cache struct {
	mu            sync.RWMutex
	plans         map[planKey]*filter.CompiledTemplate
	engineVersion *semver.Version
	capacityHint  int
	warned        bool
}

// New returns a Cache bound to engineVersion (the running engine's own
// semver). Compile rejects a description whose declared grammar version has
// a different major component, matching SPEC_FULL.md §3's "refuses to
// reuse a cached plan compiled under an incompatible engine version".
// capacityHint is an advisory size; once the number of distinct cached
// plans exceeds it, Compile logs a one-time "cache growing unbounded"
// warning. Zero disables the warning.
func New(engineVersion string, capacityHint int) (*Cache, error) {
	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return nil, oops.Code("BAD_PARAMETER").With("engine_version", engineVersion).Wrap(err)
	}
	return &Cache{
		plans:         make(map[planKey]*filter.CompiledTemplate),
		engineVersion: v,
		capacityHint:  capacityHint,
	}, nil
}

// Compile returns the cached CompiledTemplate for (expression,
// grammarVersion), parsing and optimizing only on a cache miss.
// grammarVersion may be empty, meaning "no declared constraint".
func (c *Cache) Compile(expression, grammarVersion string) (*filter.CompiledTemplate, error) {
	if err := c.checkCompatible(grammarVersion); err != nil {
		return nil, err
	}

	key := planKey{expression: expression, grammarVersion: grammarVersion}

	c.mu.RLock()
	tmpl, ok := c.plans[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordCacheResult(true)
		return tmpl, nil
	}

	tmpl, err := filter.Compile(expression)
	if err != nil {
		metrics.RecordCacheResult(false)
		return nil, err
	}

	c.mu.Lock()
	c.plans[key] = tmpl
	size := len(c.plans)
	shouldWarn := c.capacityHint > 0 && size > c.capacityHint && !c.warned
	if shouldWarn {
		c.warned = true
	}
	c.mu.Unlock()

	if shouldWarn {
		slog.Warn("compiled-plan cache growing unbounded", "size", size, "capacity_hint", c.capacityHint)
	}

	metrics.RecordCacheResult(false)
	return tmpl, nil
}

// checkCompatible rejects a grammarVersion whose major component differs
// from the cache's engine version; same-major minor/patch differences are
// assumed backward compatible within the same cache.
func (c *Cache) checkCompatible(grammarVersion string) error {
	if grammarVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(grammarVersion)
	if err != nil {
		return oops.Code("BAD_PARAMETER").With("grammar_version", grammarVersion).Wrap(err)
	}
	if v.Major() != c.engineVersion.Major() {
		return oops.Code("UNSUPPORTED").
			With("grammar_version", grammarVersion).
			With("engine_version", c.engineVersion.String()).
			Errorf("cache: grammar version %s is incompatible with engine %s", v, c.engineVersion)
	}
	return nil
}

// Create builds a Filter using a cached compiled plan for expression-kind
// descriptions, parsing only on a cache miss. Function-kind descriptions
// have no expression text to cache and are passed straight to filter.Create.
func (c *Cache) Create(domainID uint32, grammarVersion string, desc filter.Description, topicDesc topic.Descriptor, entropy filter.EntropyFunc) (*filter.Filter, error) {
	if desc.Kind != filter.KindExpression {
		return filter.Create(domainID, desc, topicDesc, entropy)
	}
	tmpl, err := c.Compile(desc.Expression, grammarVersion)
	if err != nil {
		return nil, err
	}
	return filter.CreateFromTemplate(domainID, tmpl, desc.Expression, desc, topicDesc, entropy)
}

// Len reports the number of distinct compiled plans currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

// Purge discards every cached plan, forcing the next Compile/Create for
// each expression to recompile. Intended for tests and for an operator
// reload after a grammar upgrade.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = make(map[planKey]*filter.CompiledTemplate)
	c.warned = false
}
