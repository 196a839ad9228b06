// Package retention removes per-run log files that no longer correspond to
// any snapshot in their pool.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"zbk/internal/zfs"
)

// removeFile is swappable so deletion failures can be exercised in tests.
var removeFile = os.Remove

type Action string

const (
	ActionKept    Action = "kept"
	ActionRemoved Action = "removed"
	ActionWarned  Action = "warned"
)

// Decision records what happened to one log file.
type Decision struct {
	File   string
	Date   string
	Action Action
	Reason string
	Err    error
}

// Result is the per-file decision trace plus final counts for one
// reconciliation pass.
type Result struct {
	Processed int
	Removed   int
	Kept      int
	Warned    int
	Decisions []Decision
}

// LogFileName builds the run log filename for a pool: encodes the pool and
// the run timestamp so later runs can reconcile it by date.
func LogFileName(pool string, ts time.Time) string {
	return fmt.Sprintf("%s_backup_%s.log", pool, ts.Format("20060102_1504"))
}

// SnapshotDates reduces a pool listing to the set of dates for which at
// least one conforming snapshot exists anywhere in the pool. The match is
// deliberately pool-wide: a run's log can correspond to snapshot activity
// in any child dataset, not just the top-level one.
func SnapshotDates(records []zfs.Record) map[string]struct{} {
	dates := make(map[string]struct{})
	for _, rec := range records {
		if !rec.IsSnapshot() {
			continue
		}
		if date, ok := zfs.SnapshotDate(rec.SnapshotName()); ok {
			dates[date] = struct{}{}
		}
	}
	return dates
}

// Reconcile classifies every log file for pool under logDir as kept or
// removed and deletes the orphans. Files are reconciled independently: a
// failed deletion is recorded for that file only and never aborts the pass.
//
// A log dated today is always kept, even when no snapshot exists for that
// date yet; a run may legitimately produce zero snapshots.
func Reconcile(logDir, pool string, snapshotDates map[string]struct{}, today time.Time) (Result, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read log directory: %w", err)
	}

	nameRe := regexp.MustCompile(`^` + regexp.QuoteMeta(pool) + `_backup_(\d{8})_(\d{4})\.log$`)
	poolPrefix := pool + "_backup_"
	currentDate := today.Format("20060102")

	var result Result
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || len(name) < len(poolPrefix) || name[:len(poolPrefix)] != poolPrefix {
			continue
		}

		result.Processed++
		path := filepath.Join(logDir, name)

		m := nameRe.FindStringSubmatch(name)
		if m == nil {
			// Never delete a file whose date cannot be determined.
			slog.Warn("Log file date not extractable, leaving untouched", "file", name)
			result.Warned++
			result.Decisions = append(result.Decisions, Decision{
				File: name, Action: ActionWarned, Reason: "date not extractable",
			})
			continue
		}
		date := m[1]

		if date == currentDate {
			slog.Debug("Keeping log file", "file", name, "reason", "current day")
			result.Kept++
			result.Decisions = append(result.Decisions, Decision{
				File: name, Date: date, Action: ActionKept, Reason: "current-day exemption",
			})
			continue
		}

		if _, ok := snapshotDates[date]; ok {
			slog.Debug("Keeping log file", "file", name, "reason", "snapshot exists for date", "date", date)
			result.Kept++
			result.Decisions = append(result.Decisions, Decision{
				File: name, Date: date, Action: ActionKept, Reason: "snapshot exists for date",
			})
			continue
		}

		if err := removeFile(path); err != nil {
			slog.Warn("Failed to remove orphaned log file", "file", name, "error", err)
			result.Warned++
			result.Decisions = append(result.Decisions, Decision{
				File: name, Date: date, Action: ActionWarned, Reason: "deletion failed", Err: err,
			})
			continue
		}

		slog.Info("Removed orphaned log file", "file", name, "date", date)
		result.Removed++
		result.Decisions = append(result.Decisions, Decision{
			File: name, Date: date, Action: ActionRemoved, Reason: "no snapshot for date",
		})
	}

	slog.Info("Log retention finished",
		"pool", pool,
		"processed", result.Processed,
		"removed", result.Removed,
		"kept", result.Kept,
	)

	return result, nil
}

// ReconcilePool queries the pool's snapshots and reconciles its log files in
// one call. The snapshot query is recursive across all child datasets.
func ReconcilePool(ctx context.Context, logDir, pool string, today time.Time) (Result, error) {
	records, err := zfs.ListPool(ctx, pool)
	if err != nil {
		return Result{}, err
	}
	return Reconcile(logDir, pool, SnapshotDates(records), today)
}
