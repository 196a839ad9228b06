package zfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrPoolNotFound reports that the queried pool does not exist. It is fatal
// for that pool's run: no report is produced on top of a missing pool.
var ErrPoolNotFound = errors.New("pool not found")

const (
	TypeFilesystem = "filesystem"
	TypeVolume     = "volume"
	TypeSnapshot   = "snapshot"
)

// Record is one line of the combined dataset+snapshot listing for a pool.
type Record struct {
	Name     string
	Type     string
	Used     string
	Creation time.Time
}

// IsSnapshot reports whether the record names a snapshot (dataset@name).
func (r Record) IsSnapshot() bool {
	return r.Type == TypeSnapshot
}

// Dataset returns the dataset part of a snapshot record's name, or the name
// itself for dataset records.
func (r Record) Dataset() string {
	if i := strings.IndexByte(r.Name, '@'); i >= 0 {
		return r.Name[:i]
	}
	return r.Name
}

// SnapshotName returns the part after '@', or "" for dataset records.
func (r Record) SnapshotName() string {
	if i := strings.IndexByte(r.Name, '@'); i >= 0 {
		return r.Name[i+1:]
	}
	return ""
}

// ListPool returns every dataset and snapshot under pool in a single zfs
// invocation. The -s creation sort keeps snapshots of each dataset in
// ascending creation order, which inventory collection depends on.
func ListPool(ctx context.Context, pool string) ([]Record, error) {
	cmd := exec.CommandContext(ctx,
		"zfs", "list",
		"-H",
		"-r",
		"-t", "filesystem,volume,snapshot",
		"-s", "creation",
		"-o", "name,type,used,creation",
		pool,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if strings.Contains(stderr.String(), "does not exist") {
			return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, pool)
		}
		return nil, fmt.Errorf("zfs list failed for pool %s: %w (%s)",
			pool, err, strings.TrimSpace(stderr.String()))
	}

	return ParseList(string(output))
}

// ParseList parses tab-separated `zfs list -H` output into records.
func ParseList(output string) ([]Record, error) {
	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected zfs list line: %q", line)
		}

		rec := Record{
			Name: fields[0],
			Type: fields[1],
			Used: fields[2],
		}

		// zfs prints creation like "Sat Jun  1 12:00 2025"; a value that
		// does not parse leaves Creation zero, the name-embedded timestamp
		// is what reconciliation works from.
		if t, err := time.Parse("Mon Jan _2 15:04 2006", fields[3]); err == nil {
			rec.Creation = t
		}

		records = append(records, rec)
	}
	return records, nil
}

// CheckPoolExists verifies the pool is visible to zfs. Only an explicit
// "does not exist" from zfs maps to ErrPoolNotFound; a broken zfs binary or
// permission problem surfaces as its own error.
func CheckPoolExists(pool string) error {
	cmd := exec.Command("zfs", "list", "-H", "-o", "name", pool)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "does not exist") {
			return fmt.Errorf("%w: %s", ErrPoolNotFound, pool)
		}
		return fmt.Errorf("zfs list failed for pool %s: %w (%s)",
			pool, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
