package schedule

// FindConflicts returns the active events that book any resource in scope and
// overlap the candidate interval.
//
// Rules:
//   - only statuses scheduled/confirmed/in_progress participate;
//   - the event identified by excludeEventID never conflicts with itself,
//     so updating an existing booking stays legal;
//   - an empty scope trivially yields no conflicts (no shared resource);
//   - the full matching list is returned, not a boolean, so callers can
//     explain exactly which booking clashes.
func FindConflicts(candidate Interval, scope ResourceSet, excludeEventID string, active []Event) []Event {
	if scope.Empty() {
		return nil
	}
	var out []Event
	for i := range active {
		ev := &active[i]
		if ev.ID == excludeEventID {
			continue
		}
		if !ev.Active() {
			continue
		}
		if !ev.ReferencesAny(scope) {
			continue
		}
		if !candidate.Overlaps(ev.Interval()) {
			continue
		}
		out = append(out, *ev)
	}
	return out
}
