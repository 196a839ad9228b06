package zfs

import "regexp"

// Tool-created snapshots are named <prefix>-<YYYYMMDDHHMMSS>. Anything else
// (manual snapshots, foreign tools) is excluded from date-based matching.
var snapshotNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+-(\d{14})$`)

// SnapshotTimestamp extracts the 14-digit timestamp from a snapshot name,
// returning false for names outside the naming convention.
func SnapshotTimestamp(name string) (string, bool) {
	m := snapshotNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SnapshotDate extracts the YYYYMMDD date portion of a snapshot name.
func SnapshotDate(name string) (string, bool) {
	ts, ok := SnapshotTimestamp(name)
	if !ok {
		return "", false
	}
	return ts[:8], true
}
