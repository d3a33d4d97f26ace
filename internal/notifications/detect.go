package notifications

import (
	"slices"

	"github.com/apptwatch/apptwatch/internal/availability"
)

// DetectBulk returns the locations whose appointment count grew by more
// than BulkThreshold between two snapshots.
//
// Only columns whose labels appear, by exact text, in both snapshots are
// compared. Columns present in one snapshot only are ignored, so two
// snapshots taken either side of a horizon rollover compare on their
// overlapping days and snapshots with no common labels never report a
// change.
func DetectBulk(prev, curr availability.Snapshot) []string {
	shared := SharedLabels(prev, curr)
	if len(shared) == 0 {
		return nil
	}
	return DetectBulkTotals(prev.TotalsOver(shared), curr.TotalsOver(shared))
}

// SharedLabels returns the labels of curr that prev also carries, in curr's order.
func SharedLabels(prev, curr availability.Snapshot) []string {
	old := prev.Labels()
	var shared []string
	for _, l := range curr.Labels() {
		if slices.Contains(old, l) && !slices.Contains(shared, l) {
			shared = append(shared, l)
		}
	}
	return shared
}

// DetectBulkTotals compares two per-location total tables. A location is
// reported once, in the order it first appears in curr, when its total
// rose by more than BulkThreshold. Locations absent from prev count from 0.
func DetectBulkTotals(prev, curr []availability.LocationCount) []string {
	before := make(map[string]int, len(prev))
	for _, lc := range prev {
		before[lc.Location] += lc.Count
	}

	var added []string
	for _, lc := range curr {
		if lc.Count-before[lc.Location] > BulkThreshold && !slices.Contains(added, lc.Location) {
			added = append(added, lc.Location)
		}
	}
	return added
}
