package main

import (
	"context"
	"fmt"
	"time"

	"zbk/internal/config"
	"zbk/internal/retention"
)

func runReconcile(ctx context.Context, configPath, poolName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pools := cfg.Pools
	if poolName != "" {
		pool, err := cfg.FindPool(poolName)
		if err != nil {
			return err
		}
		pools = []config.Pool{*pool}
	}

	for _, pool := range pools {
		result, err := retention.ReconcilePool(ctx, cfg.LogDir, pool.Name, time.Now())
		if err != nil {
			// Keep going: one pool's failure must not block the others.
			fmt.Printf("pool %s: reconciliation failed: %v\n", pool.Name, err)
			continue
		}
		fmt.Printf("pool %s: processed=%d removed=%d kept=%d\n",
			pool.Name, result.Processed, result.Removed, result.Kept)
	}

	return nil
}
