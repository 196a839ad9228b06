package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "zbk",
		Usage:   "ZFS pool backup wrapper",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the backup-and-report cycle for configured pools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "zbk_config.yaml",
					},
					&cli.StringFlag{
						Name:  "pool",
						Usage: "run a single pool instead of all configured pools",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBackups(ctx, cmd.String("config"), cmd.String("pool"))
				},
			},
			{
				Name:  "report",
				Usage: "Print the inventory report for a pool without running a backup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "zbk_config.yaml",
					},
					&cli.StringFlag{
						Name:     "pool",
						Usage:    "pool to report on",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runReport(ctx, cmd.String("config"), cmd.String("pool"))
				},
			},
			{
				Name:  "reconcile",
				Usage: "Remove log files that no longer match any snapshot date",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "zbk_config.yaml",
					},
					&cli.StringFlag{
						Name:  "pool",
						Usage: "reconcile a single pool instead of all configured pools",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runReconcile(ctx, cmd.String("config"), cmd.String("pool"))
				},
			},
			{
				Name:  "check",
				Usage: "Validate configuration, pools and S3 access",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "zbk_config.yaml",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runCheck(ctx, cmd.String("config"))
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(130)
		}
		slog.Error("CLI error", "error", err)
		os.Exit(1)
	}
}
