// Package backup invokes the external replication tool for one pool. The
// tool is a black box: it gets a pool and a destination and produces a
// stream of diagnostic text plus a success/failure outcome.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

type Options struct {
	Tool            string
	ExtraArgs       []string
	Pool            string
	DestinationHost string
	DestinationPath string
}

// CommandArgs builds the tool's argument vector.
func CommandArgs(opts Options) []string {
	args := append([]string{}, opts.ExtraArgs...)
	if opts.DestinationHost != "" {
		args = append(args, "--ssh-target", opts.DestinationHost)
	}
	args = append(args, opts.Pool, opts.DestinationPath)
	return args
}

// Run executes the replication tool, streaming its combined output to the
// sinks as it is produced. The output is never buffered whole in memory, so
// a crash mid-run still leaves a usable partial log. No timeout is imposed;
// cancelling ctx is the only way to stop a hung tool.
func Run(ctx context.Context, opts Options, sinks ...io.Writer) error {
	args := CommandArgs(opts)
	slog.Info("Invoking replication tool", "command", opts.Tool, "args", args)

	cmd := exec.CommandContext(ctx, opts.Tool, args...)
	out := io.MultiWriter(sinks...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("replication tool failed for pool %s: %w", opts.Pool, err)
	}
	return nil
}
