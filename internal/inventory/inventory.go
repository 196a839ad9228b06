// Package inventory reduces a pool's combined dataset+snapshot listing to a
// per-dataset summary in a single pass over the records.
package inventory

import (
	"context"

	"zbk/internal/zfs"
)

// NoSnapshot is displayed for datasets that have no snapshots at all.
const NoSnapshot = "none"

type Dataset struct {
	SnapshotCount int
	LastSnapshot  string
	SpaceUsed     string
}

// Inventory is the result of one collection pass. It is reconstructed fresh
// on every run and never cached.
type Inventory struct {
	Pool           string
	Order          []string // dataset names in datastore order
	Datasets       map[string]Dataset
	TotalDatasets  int
	TotalSnapshots int
}

// Collect builds the inventory from records as returned by zfs.ListPool.
//
// Within a dataset the records must list snapshots in ascending creation
// order: the last snapshot is tracked by unconditional overwrite, so the
// final write is the most recent one. Behavior on unordered input is
// undefined.
func Collect(pool string, records []zfs.Record) Inventory {
	inv := Inventory{
		Pool:     pool,
		Datasets: make(map[string]Dataset),
	}

	for _, rec := range records {
		if !rec.IsSnapshot() {
			if _, seen := inv.Datasets[rec.Name]; !seen {
				inv.Order = append(inv.Order, rec.Name)
				inv.Datasets[rec.Name] = Dataset{
					LastSnapshot: NoSnapshot,
					SpaceUsed:    rec.Used,
				}
				inv.TotalDatasets++
			}
			continue
		}

		owner := rec.Dataset()
		ds, seen := inv.Datasets[owner]
		if !seen {
			// Snapshot of a dataset the listing never named on its own;
			// keep counting rather than dropping the record.
			inv.Order = append(inv.Order, owner)
			inv.TotalDatasets++
		}
		ds.SnapshotCount++
		ds.LastSnapshot = rec.SnapshotName()
		inv.Datasets[owner] = ds
		inv.TotalSnapshots++
	}

	return inv
}

// CollectPool queries the datastore and collects in one call. A missing pool
// surfaces zfs.ErrPoolNotFound and no inventory is produced.
func CollectPool(ctx context.Context, pool string) (Inventory, error) {
	records, err := zfs.ListPool(ctx, pool)
	if err != nil {
		return Inventory{}, err
	}
	return Collect(pool, records), nil
}
