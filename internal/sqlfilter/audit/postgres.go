// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/metrics"
)

// pgxIface abstracts the subset of *pgxpool.Pool PostgresWriter needs, so
// tests can substitute pgxmock.PgxPoolIface without a live database.
// Grounded on the teacher's migrateIface abstraction in
// internal/store/migrate.go, applied here to the audit sink instead of
// the migrator.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresWriter implements Writer against the filter_audit_log table.
type PostgresWriter struct {
	pool        pgxIface
	asyncChan   chan Entry
	stopChan    chan struct{}
	wg          sync.WaitGroup
	batchSize   int
	flushPeriod time.Duration
}

// NewPostgresWriter creates a PostgresWriter backed by pool.
func NewPostgresWriter(pool pgxIface) *PostgresWriter {
	w := &PostgresWriter{
		pool:        pool,
		asyncChan:   make(chan Entry, 1000),
		stopChan:    make(chan struct{}),
		batchSize:   100,
		flushPeriod: time.Second,
	}
	w.wg.Add(1)
	go w.batchConsumer()
	return w
}

const insertEntrySQL = `
	INSERT INTO filter_audit_log (
		instance_id, domain_id, kind, side, event, expression, reason,
		duration_us, timestamp
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// WriteSync performs a synchronous, retried write to the database.
// Retries transient Postgres errors (serialization failures, deadlocks,
// connection drops) with exponential backoff, mirroring the teacher's
// reconnect-backoff convention in policy/cache.go but applied per-write
// instead of per-reconnect.
func (w *PostgresWriter) WriteSync(ctx context.Context, entry Entry) error {
	b := retry.WithMaxRetries(5, retry.NewExponential(50*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		_, execErr := w.pool.Exec(ctx, insertEntrySQL,
			entry.InstanceID, entry.DomainID, entry.Kind, entry.Side,
			string(entry.Event), entry.Expression, entry.Reason,
			entry.DurationUS, entry.Timestamp,
		)
		if execErr == nil {
			return nil
		}
		if isRetryablePgError(execErr) {
			return retry.RetryableError(execErr)
		}
		return execErr
	})
	if err != nil {
		return oops.Code("ERROR").With("instance_id", entry.InstanceID).Wrap(err)
	}
	return nil
}

// isRetryablePgError reports whether err is a Postgres error class that
// is worth retrying: serialization failures, deadlocks, and dropped
// connections are all typically transient.
func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist, pgerrcode.ConnectionFailure:
		return true
	default:
		return false
	}
}

// WriteAsync queues entry for batched background writing.
func (w *PostgresWriter) WriteAsync(entry Entry) error {
	select {
	case w.asyncChan <- entry:
		return nil
	default:
		metrics.RecordAuditChannelFull()
		return fmt.Errorf("audit: postgres writer async channel full")
	}
}

func (w *PostgresWriter) batchConsumer() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushPeriod)
	defer ticker.Stop()

	var batch []Entry
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.writeBatch(ctx, batch); err != nil {
			slog.Error("failed to write audit batch", "error", err, "count", len(batch))
			metrics.RecordAuditFailure("batch_write_failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-w.asyncChan:
			batch = append(batch, entry)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.stopChan:
			for {
				select {
				case entry := <-w.asyncChan:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *PostgresWriter) writeBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ERROR").Wrap(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Each insert runs under its own savepoint: a bad row (constraint
	// violation, bad data) only rolls back to the savepoint instead of
	// aborting the whole transaction, so one malformed entry doesn't
	// discard every other entry in the batch.
	for i := range entries {
		entry := &entries[i]
		if _, err := tx.Exec(ctx, "SAVEPOINT audit_row"); err != nil {
			return oops.Code("ERROR").Wrap(err)
		}
		if _, err := tx.Exec(ctx, insertEntrySQL,
			entry.InstanceID, entry.DomainID, entry.Kind, entry.Side,
			string(entry.Event), entry.Expression, entry.Reason,
			entry.DurationUS, entry.Timestamp,
		); err != nil {
			slog.Error("failed to insert audit entry", "error", err, "instance_id", entry.InstanceID)
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT audit_row"); rbErr != nil {
				return oops.Code("ERROR").Wrap(rbErr)
			}
			continue
		}
		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT audit_row"); err != nil {
			return oops.Code("ERROR").Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("ERROR").Wrap(err)
	}
	return nil
}

// Close gracefully shuts down the batch consumer.
func (w *PostgresWriter) Close() error {
	close(w.stopChan)
	w.wg.Wait()
	return nil
}
