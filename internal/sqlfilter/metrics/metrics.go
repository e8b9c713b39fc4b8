// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package metrics exposes Prometheus instrumentation for the content-filter
// engine: parse/build/eval latency, accept/reject counts, and compiled-plan
// cache hit/miss totals. Grounded on the teacher's
// internal/access/policy/metrics.go (promauto histogram/counter-vec shape).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// compileDuration tracks the latency of parsing plus optimizer
	// building a single expression (filter.Compile).
	compileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sqlfilter_compile_duration_seconds",
		Help:    "Histogram of expression parse+build latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// evalDuration tracks the latency of one Eval call against a bound
	// sample.
	evalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sqlfilter_eval_duration_seconds",
		Help:    "Histogram of expression evaluation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// acceptTotal counts ReaderAccept/WriterAccept outcomes by filter
	// kind, side, and result.
	acceptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlfilter_accept_total",
		Help: "Total number of reader/writer accept evaluations",
	}, []string{"kind", "side", "result"})

	// cacheResultTotal counts compiled-plan cache lookups by outcome.
	cacheResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlfilter_cache_result_total",
		Help: "Total number of compiled-plan cache lookups by result",
	}, []string{"result"})

	// auditChannelFullTotal counts times the audit logger's async channel
	// was full and an entry was dropped.
	auditChannelFullTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlfilter_audit_channel_full_total",
		Help: "Total number of times the async audit channel was full",
	})

	// auditFailuresTotal counts audit write failures by reason.
	auditFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlfilter_audit_failures_total",
		Help: "Total number of audit logging failures",
	}, []string{"reason"})
)

// RecordCompile records one filter.Compile call's latency.
func RecordCompile(d time.Duration) {
	compileDuration.Observe(d.Seconds())
}

// RecordEval records one eval.Eval call's latency.
func RecordEval(d time.Duration) {
	evalDuration.Observe(d.Seconds())
}

// RecordAccept records one ReaderAccept/WriterAccept outcome. kind is
// "expression" or "function"; side is "reader" or "writer".
func RecordAccept(kind, side string, accepted bool) {
	result := "reject"
	if accepted {
		result = "accept"
	}
	acceptTotal.WithLabelValues(kind, side, result).Inc()
}

// RecordCacheResult records one compiled-plan cache lookup, hit or miss.
func RecordCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheResultTotal.WithLabelValues(result).Inc()
}

// RecordAuditChannelFull records one dropped audit entry due to a full
// async channel.
func RecordAuditChannelFull() {
	auditChannelFullTotal.Inc()
}

// RecordAuditFailure records one audit write failure by reason
// ("wal_failed", "async_write_failed", "wal_unmarshal_failed", ...).
func RecordAuditFailure(reason string) {
	auditFailuresTotal.WithLabelValues(reason).Inc()
}
