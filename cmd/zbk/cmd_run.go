package main

import (
	"context"
	"fmt"

	"zbk/internal/check"
	"zbk/internal/config"
	"zbk/internal/remote"
	"zbk/internal/runner"
)

func runBackups(ctx context.Context, configPath, poolName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if poolName != "" {
		pool, err := cfg.FindPool(poolName)
		if err != nil {
			return err
		}
		cfg.Pools = []config.Pool{*pool}
	}

	r := runner.New(cfg)

	if cfg.S3.Enabled {
		backend, err := remote.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region,
			cfg.S3.Prefix, cfg.S3.Endpoint,
			cfg.S3.StorageClass, cfg.S3RetryAttempts())
		if err != nil {
			return fmt.Errorf("failed to initialize S3 backend: %w", err)
		}
		if err := backend.VerifyCredentials(ctx); err != nil {
			return fmt.Errorf("AWS credentials verification failed: %w", err)
		}
		r.WithBackend(backend)
	}

	runs, err := r.RunAll(ctx)
	if err != nil {
		return err
	}

	return runner.Summarize(runs)
}

func runCheck(ctx context.Context, configPath string) error {
	return check.Run(ctx, configPath)
}
