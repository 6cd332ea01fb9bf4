package budget

// Snapshot is the attachment total derived from a set of slots.
type Snapshot struct {
	TotalBytes int64 `json:"total_bytes"`
	Count      int   `json:"count"`
}

// Remaining returns the bytes still available under the aggregate cap, never negative.
func (s Snapshot) Remaining() int64 {
	if r := MaxAggregateBytes - s.TotalBytes; r > 0 {
		return r
	}
	return 0
}

// ComputeBudget sums the populated slots. It keeps no state: callers recompute
// after every add, replace or remove instead of adjusting a running counter.
func ComputeBudget(slots []Slot) Snapshot {
	var snap Snapshot
	for _, s := range slots {
		if !s.Present {
			continue
		}
		snap.TotalBytes += s.Size
		snap.Count++
	}
	return snap
}
