// Package runlog parses the captured output of one external replication
// invocation. This is the single place that knows the tool's line formats;
// a format change in the tool should only ever touch this package.
package runlog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"zbk/internal/zfs"
)

// The replication tool logs the same events for both ends of a transfer.
// Only [Source]-tagged lines are local dataset mutations; [Target] lines
// are echoes from the destination and must not be counted.
var (
	createRe  = regexp.MustCompile(`\[Source\] Creating snapshots (\S+) in pool (\S+)`)
	destroyRe = regexp.MustCompile(`\[Source\] (\S+)@(\S+): Destroying`)
)

// Stats holds what one run did to the source pool, recovered from its
// captured output. Zero matches mean zero events, never an error.
type Stats struct {
	SnapshotsCreated int
	SnapshotsDeleted int
	CreatedNames     []string
}

// Parse scans the captured tool output line by line.
func Parse(r io.Reader) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := createRe.FindStringSubmatch(line); m != nil {
			stats.SnapshotsCreated++
			if _, ok := zfs.SnapshotTimestamp(m[1]); ok {
				stats.CreatedNames = append(stats.CreatedNames, m[1])
			}
			continue
		}

		if destroyRe.MatchString(line) {
			stats.SnapshotsDeleted++
		}
	}
	if err := scanner.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to scan captured output: %w", err)
	}

	return stats, nil
}
