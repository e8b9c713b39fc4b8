// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// PartitionCreator creates daily filter_audit_log partitions. Grounded
// on the teacher's PostgresPartitionCreator, narrowed from monthly to
// daily partitioning — the audit log's write volume (one entry per
// reader/writer accept decision) is expected to be high enough that a
// daily partition is the more useful retention boundary.
type PartitionCreator struct {
	pool *pgxpool.Pool
}

// NewPartitionCreator creates a PartitionCreator backed by pool.
func NewPartitionCreator(pool *pgxpool.Pool) *PartitionCreator {
	return &PartitionCreator{pool: pool}
}

// EnsurePartitions creates daily partitions for today plus the given
// number of future days, using IF NOT EXISTS for idempotency. Partition
// naming follows filter_audit_log_YYYY_MM_DD.
func (c *PartitionCreator) EnsurePartitions(ctx context.Context, days int) error {
	now := time.Now().UTC()
	for i := 0; i <= days; i++ {
		t := now.AddDate(0, 0, i)
		name, start, end := partitionRange(t)

		query := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s PARTITION OF filter_audit_log FOR VALUES FROM ('%s') TO ('%s')`,
			name, start.Format("2006-01-02"), end.Format("2006-01-02"),
		)
		if _, err := c.pool.Exec(ctx, query); err != nil {
			return oops.Code("ERROR").
				With("partition", name).
				With("range_start", start.Format("2006-01-02")).
				With("range_end", end.Format("2006-01-02")).
				Wrap(err)
		}
	}
	return nil
}

// partitionRange returns the partition name and date boundaries for the
// day containing t. start is inclusive, end is exclusive.
func partitionRange(t time.Time) (name string, start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 1)
	name = fmt.Sprintf("filter_audit_log_%04d_%02d_%02d", t.Year(), t.Month(), t.Day())
	return name, start, end
}
