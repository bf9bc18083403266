package schedule

import "sort"

// Availability is the busy/free view of one resource over a query range.
type Availability struct {
	ResourceID string   `json:"resource_id"`
	Range      Interval `json:"range"`
	// Busy holds the intervals of active events booking the resource,
	// clipped to Range and sorted by start.
	Busy []Interval `json:"busy"`
}

// QueryAvailability collects the busy intervals of a resource within rng.
// The resource id is matched against both people and equipment bookings.
func QueryAvailability(resourceID string, rng Interval, active []Event) Availability {
	out := Availability{ResourceID: resourceID, Range: rng}
	for i := range active {
		ev := &active[i]
		if !ev.Active() {
			continue
		}
		if !ev.ReferencesResource(resourceID) {
			continue
		}
		if clipped, ok := ev.Interval().Clip(rng); ok {
			out.Busy = append(out.Busy, clipped)
		}
	}
	sort.Slice(out.Busy, func(i, j int) bool {
		return out.Busy[i].Start.Before(out.Busy[j].Start)
	})
	return out
}

// IsFreeFor reports whether the candidate interval touches none of the busy
// intervals.
func (a Availability) IsFreeFor(candidate Interval) bool {
	for _, b := range a.Busy {
		if candidate.Overlaps(b) {
			return false
		}
	}
	return true
}
