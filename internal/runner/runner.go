// Package runner drives the backup-and-report cycle: one pool at a time,
// invocation then inventory then report then log retention, with a pause
// between pools so the destination is not hit with back-to-back streams.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zbk/internal/backup"
	"zbk/internal/config"
	"zbk/internal/inventory"
	"zbk/internal/logging"
	"zbk/internal/remote"
	"zbk/internal/report"
	"zbk/internal/retention"
	"zbk/internal/runlog"
	"zbk/internal/zfs"
)

type State int

const (
	StateInvoking State = iota
	StateCollecting
	StateReporting
	StateReconciling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInvoking:
		return "invoking"
	case StateCollecting:
		return "collecting"
	case StateReporting:
		return "reporting"
	case StateReconciling:
		return "reconciling"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// PoolRun is the outcome of one pool's cycle. Failed is a terminal
// attribute, not a state: reporting and reconciliation still run after a
// failed invocation.
type PoolRun struct {
	Pool      string
	Status    report.Status
	Failed    bool
	LogPath   string
	Stats     report.RunStats
	Retention retention.Result
	Err       error
}

type Runner struct {
	cfg     *config.Config
	backend remote.Backend
	console io.Writer
	now     func() time.Time
	pause   time.Duration

	// listPool is swappable so the cycle can be exercised without a live
	// zfs binary.
	listPool func(ctx context.Context, pool string) ([]zfs.Record, error)
}

func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:      cfg,
		console:  os.Stdout,
		now:      time.Now,
		pause:    cfg.PauseDuration(),
		listPool: zfs.ListPool,
	}
}

// WithBackend enables archival of finished run logs.
func (r *Runner) WithBackend(b remote.Backend) *Runner {
	r.backend = b
	return r
}

// RunAll processes every configured pool sequentially. A failure local to
// one pool never aborts its siblings; the only fatal condition here is an
// unusable log directory.
func (r *Runner) RunAll(ctx context.Context) ([]PoolRun, error) {
	if err := os.MkdirAll(r.cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Pool-level failures are reported on a console-bound logger: the
	// failed pool's own log file may be the thing that is broken.
	consoleLog := slog.New(slog.NewTextHandler(r.console, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var runs []PoolRun
	for i, pool := range r.cfg.Pools {
		if i > 0 {
			select {
			case <-ctx.Done():
				return runs, ctx.Err()
			case <-time.After(r.pause):
			}
		}

		run := r.RunPool(ctx, pool)
		if run.Err != nil {
			consoleLog.Error("Pool run failed", "pool", pool.Name, "error", run.Err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// RunPool executes the full cycle for one pool.
func (r *Runner) RunPool(ctx context.Context, pool config.Pool) PoolRun {
	run := PoolRun{Pool: pool.Name}

	start := r.now()
	run.LogPath = filepath.Join(r.cfg.LogDir, retention.LogFileName(pool.Name, start))

	logger, logFile, err := logging.NewLogger(run.LogPath)
	if err != nil {
		run.Err = err
		return run
	}
	defer logFile.Close()

	// The default logger must not outlive the log file it writes to.
	prevLogger := slog.Default()
	defer slog.SetDefault(prevLogger)
	slog.SetDefault(logger)

	if !pool.Enabled {
		run.Status = report.StatusSkipped
		rendered := report.RenderSkipped(pool.Name, "pool disabled in configuration", r.now())
		if err := logging.WriteAll(rendered, r.console, logFile); err != nil {
			run.Err = err
		}
		return run
	}

	slog.Info("Backup run started", "pool", pool.Name, "destination", r.cfg.Destination.Path)

	var (
		inv      inventory.Inventory
		toolStat runlog.Stats
	)

	for state := StateInvoking; state != StateDone; {
		switch state {
		case StateInvoking:
			toolStat, run.Failed = r.invoke(ctx, pool.Name, logFile)
			state = StateCollecting

		case StateCollecting:
			records, err := r.listPool(ctx, pool.Name)
			if err != nil {
				// A vanished pool is fatal for this run: no report is
				// produced on top of a missing pool.
				run.Err = err
				return run
			}
			inv = inventory.Collect(pool.Name, records)
			state = StateReporting

		case StateReporting:
			run.Status = report.StatusCompleted
			if run.Failed {
				run.Status = report.StatusFailed
			}
			run.Stats = report.RunStats{
				TotalDatasets:    inv.TotalDatasets,
				TotalSnapshots:   inv.TotalSnapshots,
				SnapshotsCreated: toolStat.SnapshotsCreated,
				SnapshotsDeleted: toolStat.SnapshotsDeleted,
				Duration:         r.now().Sub(start),
			}
			rendered := report.Render(pool.Name, run.Status, inv, run.Stats, r.now())
			if err := logging.WriteAll(rendered, r.console, logFile); err != nil {
				run.Err = err
				return run
			}
			state = StateReconciling

		case StateReconciling:
			records, err := r.listPool(ctx, pool.Name)
			if err != nil {
				slog.Warn("Skipping log retention, pool listing failed", "pool", pool.Name, "error", err)
			} else {
				result, err := retention.Reconcile(r.cfg.LogDir, pool.Name,
					retention.SnapshotDates(records), r.now())
				if err != nil {
					slog.Warn("Log retention failed", "pool", pool.Name, "error", err)
				} else {
					run.Retention = result
				}
			}
			state = StateDone
		}
	}

	r.archive(ctx, pool.Name, run.LogPath)

	slog.Info("Backup run finished", "pool", pool.Name, "status", run.Status)
	return run
}

// invoke runs the external tool with output streamed to console and log
// file, then parses the section of the log file this invocation produced.
// Tool failure is terminal for the status only; the cycle continues.
func (r *Runner) invoke(ctx context.Context, pool string, logFile *os.File) (runlog.Stats, bool) {
	var sectionStart int64
	if fi, err := logFile.Stat(); err == nil {
		sectionStart = fi.Size()
	}

	opts := backup.Options{
		Tool:            r.cfg.ToolCommand(),
		ExtraArgs:       r.cfg.Tool.ExtraArgs,
		Pool:            pool,
		DestinationHost: r.cfg.Destination.Host,
		DestinationPath: r.cfg.Destination.Path,
	}

	failed := false
	if err := backup.Run(ctx, opts, r.console, logFile); err != nil {
		slog.Error("Replication tool failed", "pool", pool, "error", err)
		failed = true
	}

	fi, err := logFile.Stat()
	if err != nil {
		slog.Warn("Cannot stat log file, skipping output parsing", "error", err)
		return runlog.Stats{}, failed
	}

	section := io.NewSectionReader(logFile, sectionStart, fi.Size()-sectionStart)
	stats, err := runlog.Parse(section)
	if err != nil {
		slog.Warn("Failed to parse captured tool output", "error", err)
		return runlog.Stats{}, failed
	}

	slog.Info("Parsed tool output",
		"created", stats.SnapshotsCreated,
		"destroyed", stats.SnapshotsDeleted,
	)
	return stats, failed
}

func (r *Runner) archive(ctx context.Context, pool, logPath string) {
	if r.backend == nil {
		return
	}
	if err := remote.ArchiveLog(ctx, r.backend, pool, logPath); err != nil {
		slog.Warn("Failed to archive run log", "pool", pool, "error", err)
	}
}

// Summarize maps per-pool outcomes to a process-level error for the CLI
// exit code.
func Summarize(runs []PoolRun) error {
	var failed []string
	for _, run := range runs {
		if run.Err != nil || run.Failed {
			failed = append(failed, run.Pool)
		}
	}
	if len(failed) > 0 {
		return errors.New("backup failed for pools: " + strings.Join(failed, ", "))
	}
	return nil
}
