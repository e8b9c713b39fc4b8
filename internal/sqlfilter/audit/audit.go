// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package audit logs filter accept/reject decisions to an optional
// Postgres sink, with a local write-ahead log fallback when a synchronous
// write to the sink fails (an async entry that finds the channel full is
// dropped and counted instead). Grounded on
// internal/access/policy/audit/logger.go: same Mode-gated sync/async
// routing, buffered async channel, and JSONL WAL fallback, adapted from
// ABAC allow/deny decisions to filter accept/reject decisions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/metrics"
)

// EventType discriminates the outcome an Entry records.
type EventType string

const (
	EventAccept EventType = "accept"
	EventReject EventType = "reject"
	EventError  EventType = "error"
)

// Mode controls which events Logger.Log actually writes, and whether the
// write is synchronous.
type Mode string

const (
	// ModeDisabled logs nothing; Logger.Log is a no-op.
	ModeDisabled Mode = "disabled"
	// ModeMinimal logs only errors, synchronously.
	ModeMinimal Mode = "minimal"
	// ModeRejectsOnly logs errors and rejects, synchronously.
	ModeRejectsOnly Mode = "rejects_only"
	// ModeAll logs everything: errors and rejects synchronously, accepts
	// asynchronously.
	ModeAll Mode = "all"
)

// Entry is a single filter evaluation decision.
type Entry struct {
	InstanceID string    `json:"instance_id"`
	DomainID   uint32    `json:"domain_id"`
	Kind       string    `json:"kind"`  // "expression" or "function"
	Side       string    `json:"side"`  // "reader" or "writer"
	Event      EventType `json:"event"`
	Expression string    `json:"expression,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DurationUS int64     `json:"duration_us"`
	Timestamp  time.Time `json:"timestamp"`
}

// Writer is the interface for writing audit entries to a backend.
type Writer interface {
	WriteSync(ctx context.Context, entry Entry) error
	WriteAsync(entry Entry) error
	Close() error
}

// Logger routes audit entries based on Mode and Entry.Event.
type Logger struct {
	mode      Mode
	writer    Writer
	walPath   string
	walFile   *os.File
	walMu     sync.Mutex
	asyncChan chan Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates a Logger with the given mode, writer, WAL fallback
// path, and async channel buffer size.
func NewLogger(mode Mode, writer Writer, walPath string, channelSize int) *Logger {
	if channelSize <= 0 {
		channelSize = 1024
	}
	l := &Logger{
		mode:      mode,
		writer:    writer,
		walPath:   walPath,
		asyncChan: make(chan Entry, channelSize),
		stopChan:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.asyncConsumer()
	return l
}

// Log routes entry based on the configured mode and event type.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	shouldLog, useSync := l.shouldLog(entry.Event)
	if !shouldLog {
		return nil
	}

	if useSync {
		if err := l.writer.WriteSync(ctx, entry); err != nil {
			if walErr := l.writeToWAL(entry); walErr != nil {
				slog.Error("audit write failed: both sink and WAL failed",
					"sink_error", err, "wal_error", walErr,
					"instance_id", entry.InstanceID, "event", entry.Event)
				metrics.RecordAuditFailure("wal_failed")
			}
		}
		return nil
	}

	select {
	case l.asyncChan <- entry:
		return nil
	default:
		metrics.RecordAuditChannelFull()
		return nil
	}
}

func (l *Logger) shouldLog(event EventType) (shouldLog, useSync bool) {
	switch l.mode {
	case ModeMinimal:
		return event == EventError, true
	case ModeRejectsOnly:
		switch event {
		case EventError, EventReject:
			return true, true
		default:
			return false, false
		}
	case ModeAll:
		switch event {
		case EventError, EventReject:
			return true, true
		case EventAccept:
			return true, false
		default:
			return false, false
		}
	default:
		return false, false
	}
}

func (l *Logger) asyncConsumer() {
	defer l.wg.Done()
	for {
		select {
		case entry := <-l.asyncChan:
			if err := l.writer.WriteAsync(entry); err != nil {
				slog.Error("async audit write failed", "error", err, "instance_id", entry.InstanceID)
				metrics.RecordAuditFailure("async_write_failed")
			}
		case <-l.stopChan:
			l.drainAsync()
			return
		}
	}
}

func (l *Logger) drainAsync() {
	for {
		select {
		case entry := <-l.asyncChan:
			if err := l.writer.WriteAsync(entry); err != nil {
				slog.Error("async audit write failed during drain", "error", err, "instance_id", entry.InstanceID)
				metrics.RecordAuditFailure("async_write_failed")
			}
		default:
			return
		}
	}
}

func (l *Logger) writeToWAL(entry Entry) error {
	l.walMu.Lock()
	defer l.walMu.Unlock()

	if l.walFile == nil {
		file, err := os.OpenFile(l.walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY|os.O_SYNC, 0o600)
		if err != nil {
			return oops.Code("ERROR").With("path", l.walPath).Wrap(err)
		}
		l.walFile = file
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return oops.Code("ERROR").Wrap(err)
	}
	if _, err := fmt.Fprintf(l.walFile, "%s\n", data); err != nil {
		return oops.Code("ERROR").Wrap(err)
	}
	return nil
}

// ReplayWAL reads every entry from the WAL and writes it through
// WriteSync, truncating the WAL on success.
func (l *Logger) ReplayWAL(ctx context.Context) error {
	l.walMu.Lock()
	defer l.walMu.Unlock()

	if _, err := os.Stat(l.walPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(l.walPath)
	if err != nil {
		return oops.Code("ERROR").With("path", l.walPath).Wrap(err)
	}
	if len(data) == 0 {
		return nil
	}

	replayed := 0
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			slog.Error("failed to unmarshal WAL entry", "error", err)
			metrics.RecordAuditFailure("wal_unmarshal_failed")
			continue
		}
		if err := l.writer.WriteSync(ctx, entry); err != nil {
			slog.Error("failed to replay WAL entry", "error", err, "instance_id", entry.InstanceID)
			metrics.RecordAuditFailure("wal_replay_failed")
			continue
		}
		replayed++
	}

	if err := os.Truncate(l.walPath, 0); err != nil {
		return oops.Code("ERROR").With("path", l.walPath).Wrap(err)
	}
	slog.Info("replayed WAL entries", "count", replayed)
	return nil
}

// Close gracefully shuts down the logger's async consumer, the writer,
// and the WAL file.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()

	if err := l.writer.Close(); err != nil {
		return oops.Code("ERROR").Wrap(err)
	}

	l.walMu.Lock()
	defer l.walMu.Unlock()
	if l.walFile != nil {
		if err := l.walFile.Close(); err != nil {
			return oops.Code("ERROR").Wrap(err)
		}
		l.walFile = nil
	}
	return nil
}
