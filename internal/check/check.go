package check

import (
	"context"
	"fmt"
	"os"

	"zbk/internal/config"
	"zbk/internal/remote"
	"zbk/internal/zfs"
)

// Run validates the configuration, the configured pools, the log directory
// and the optional S3 backend before any backup is attempted.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Println("config: OK")

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}
	fmt.Printf("log directory %s: OK\n", cfg.LogDir)

	for _, pool := range cfg.Pools {
		if !pool.Enabled {
			fmt.Printf("pool %s: skipped (disabled)\n", pool.Name)
			continue
		}
		if err := zfs.CheckPoolExists(pool.Name); err != nil {
			return fmt.Errorf("pool %s: %w", pool.Name, err)
		}
		fmt.Printf("pool %s: OK\n", pool.Name)
	}

	if cfg.S3.Enabled {
		backend, err := remote.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region,
			cfg.S3.Prefix, cfg.S3.Endpoint,
			cfg.S3.StorageClass, cfg.S3RetryAttempts())
		if err != nil {
			return fmt.Errorf("S3 init: %w", err)
		}
		if err := backend.VerifyCredentials(ctx); err != nil {
			return fmt.Errorf("S3 credentials: %w", err)
		}
		fmt.Printf("S3 bucket %s: OK\n", cfg.S3.Bucket)
	}

	fmt.Println("all checks passed")
	return nil
}
