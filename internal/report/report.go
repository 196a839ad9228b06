// Package report renders the per-run summary. The report is rendered once
// into a buffer and the same bytes are written to every sink, so console
// and log file copies can never drift apart.
package report

import (
	"bytes"
	"fmt"
	"time"

	"zbk/internal/inventory"
)

type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusSkipped   Status = "SKIPPED"
)

// RunStats is the per-invocation aggregate shown in the statistics table.
// It is computed once per run and never mutated afterwards.
type RunStats struct {
	TotalDatasets    int
	TotalSnapshots   int
	SnapshotsCreated int
	SnapshotsDeleted int
	Duration         time.Duration
}

const (
	lineWidth   = 92
	datasetCol  = 42
	countCol    = 5
	snapshotCol = 28
	usedCol     = 10
)

// truncate shortens s to at most width bytes, marking the cut with an
// ellipsis. Entries are never wrapped or rejected; zfs names are ASCII so
// byte positions are character positions.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

func rule(buf *bytes.Buffer, ch byte) {
	for i := 0; i < lineWidth; i++ {
		buf.WriteByte(ch)
	}
	buf.WriteByte('\n')
}

func header(buf *bytes.Buffer, pool string, status Status, generated time.Time) {
	rule(buf, '=')
	fmt.Fprintf(buf, " BACKUP SUMMARY: %s  [%s]\n", pool, status)
	fmt.Fprintf(buf, " Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	rule(buf, '=')
}

// Render produces the full tabular report for a completed or failed run.
func Render(pool string, status Status, inv inventory.Inventory, stats RunStats, generated time.Time) []byte {
	var buf bytes.Buffer

	header(&buf, pool, status, generated)

	fmt.Fprintf(&buf, " %-*s  %*s  %-*s  %-*s\n",
		datasetCol, "DATASET", countCol, "SNAPS", snapshotCol, "LAST SNAPSHOT", usedCol, "USED")
	rule(&buf, '-')

	for _, name := range inv.Order {
		ds := inv.Datasets[name]
		fmt.Fprintf(&buf, " %-*s  %*d  %-*s  %-*s\n",
			datasetCol, truncate(name, datasetCol),
			countCol, ds.SnapshotCount,
			snapshotCol, truncate(ds.LastSnapshot, snapshotCol),
			usedCol, truncate(ds.SpaceUsed, usedCol))
	}

	rule(&buf, '-')
	fmt.Fprintf(&buf, " STATISTICS\n")
	fmt.Fprintf(&buf, "   Datasets:            %d\n", stats.TotalDatasets)
	fmt.Fprintf(&buf, "   Snapshots:           %d\n", stats.TotalSnapshots)
	fmt.Fprintf(&buf, "   Created this run:    %d\n", stats.SnapshotsCreated)
	fmt.Fprintf(&buf, "   Destroyed this run:  %d\n", stats.SnapshotsDeleted)
	fmt.Fprintf(&buf, "   Duration:            %s\n", stats.Duration.Round(time.Second))
	rule(&buf, '=')

	return buf.Bytes()
}

// RenderSkipped produces the short-form body for a pool that was not
// processed, showing only the condition that caused the skip.
func RenderSkipped(pool, reason string, generated time.Time) []byte {
	var buf bytes.Buffer

	header(&buf, pool, StatusSkipped, generated)
	fmt.Fprintf(&buf, " Run skipped: %s\n", reason)
	rule(&buf, '=')

	return buf.Bytes()
}
