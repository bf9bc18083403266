package schedule

import (
	"fmt"
	"strings"
	"time"
)

// InvalidIntervalError reports a draft whose start is not strictly before its
// end. Always a caller bug; never retried.
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: start %s is not before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// InvalidRecurrenceError reports a recurrence definition that cannot be
// expanded: unknown pattern, non-positive interval, or no explicit
// termination condition.
type InvalidRecurrenceError struct {
	Reason string
}

func (e *InvalidRecurrenceError) Error() string {
	return "invalid recurrence: " + e.Reason
}

// TransitionError reports an illegal event status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// Conflict describes one existing booking that clashes with a request.
type Conflict struct {
	EventID    string   `json:"event_id"`
	Title      string   `json:"title"`
	ClientName string   `json:"client_name,omitempty"`
	When       Interval `json:"when"`
}

// ConflictError is returned when one or more active bookings overlap the
// requested resource and interval. It carries the full conflicting list so
// callers can report which booking clashes and with whom. Never auto-retried:
// the caller must pick a different time or resource.
type ConflictError struct {
	ResourceKind string   // "equipment", "person", or "" for multi-resource checks
	ResourceID   string
	Requested    Interval
	Conflicts    []Conflict
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString("schedule conflict")
	if e.ResourceID != "" {
		kind := e.ResourceKind
		if kind == "" {
			kind = "resource"
		}
		fmt.Fprintf(&b, ": %s %s already booked", kind, e.ResourceID)
	}
	if len(e.Conflicts) > 0 {
		c := e.Conflicts[0]
		fmt.Fprintf(&b, " for %q", c.Title)
		if c.ClientName != "" {
			fmt.Fprintf(&b, " of client %s", c.ClientName)
		}
		fmt.Fprintf(&b, " (%s - %s)",
			c.When.Start.Format(time.RFC3339), c.When.End.Format(time.RFC3339))
	}
	if len(e.Conflicts) > 1 {
		fmt.Fprintf(&b, " and %d more", len(e.Conflicts)-1)
	}
	return b.String()
}

// NewConflictError builds a ConflictError from the detector's output.
func NewConflictError(kind, resourceID string, requested Interval, conflicts []Event) *ConflictError {
	out := &ConflictError{
		ResourceKind: kind,
		ResourceID:   resourceID,
		Requested:    requested,
	}
	for i := range conflicts {
		ev := &conflicts[i]
		out.Conflicts = append(out.Conflicts, Conflict{
			EventID:    ev.ID,
			Title:      ev.Title,
			ClientName: ev.ClientName,
			When:       ev.Interval(),
		})
	}
	return out
}
