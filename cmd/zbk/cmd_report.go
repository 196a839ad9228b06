package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"zbk/internal/config"
	"zbk/internal/inventory"
	"zbk/internal/report"
)

// runReport prints a point-in-time inventory report for one pool. No tool
// is invoked, so the created/destroyed counters stay zero.
func runReport(ctx context.Context, configPath, poolName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := cfg.FindPool(poolName); err != nil {
		return err
	}

	inv, err := inventory.CollectPool(ctx, poolName)
	if err != nil {
		return err
	}

	stats := report.RunStats{
		TotalDatasets:  inv.TotalDatasets,
		TotalSnapshots: inv.TotalSnapshots,
	}

	rendered := report.Render(poolName, report.StatusCompleted, inv, stats, time.Now())
	_, err = os.Stdout.Write(rendered)
	return err
}
