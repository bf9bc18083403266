package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

type RecurrencePattern string

const (
	PatternDaily   RecurrencePattern = "daily"
	PatternWeekly  RecurrencePattern = "weekly"
	PatternMonthly RecurrencePattern = "monthly"
	PatternYearly  RecurrencePattern = "yearly"
)

// maxExpansionPerEvent bounds a single expansion no matter what the
// termination settings say. It is a backstop, not a termination condition.
const maxExpansionPerEvent = 1000

// Recurrence defines how an event repeats.
//
// At least one of EndRecurrence / MaxOccurrences must be set. There is no
// implicit far-future cutoff: a definition with no explicit termination is
// rejected at validation time.
type Recurrence struct {
	Pattern  RecurrencePattern `json:"pattern"`
	Interval int               `json:"interval"`

	// EndRecurrence is the last start instant allowed (inclusive).
	EndRecurrence *time.Time `json:"end_recurrence,omitempty"`
	// MaxOccurrences caps the series length; the base event counts as
	// occurrence #1.
	MaxOccurrences int `json:"max_occurrences,omitempty"`
}

func (r *Recurrence) frequency() (rrule.Frequency, bool) {
	switch r.Pattern {
	case PatternDaily:
		return rrule.DAILY, true
	case PatternWeekly:
		return rrule.WEEKLY, true
	case PatternMonthly:
		return rrule.MONTHLY, true
	case PatternYearly:
		return rrule.YEARLY, true
	}
	return 0, false
}

func (r *Recurrence) Validate() error {
	if r == nil {
		return nil
	}
	if _, ok := r.frequency(); !ok {
		return &InvalidRecurrenceError{Reason: "unknown pattern " + string(r.Pattern)}
	}
	if r.Interval <= 0 {
		return &InvalidRecurrenceError{Reason: "interval must be a positive integer"}
	}
	if r.EndRecurrence == nil && r.MaxOccurrences <= 0 {
		return &InvalidRecurrenceError{Reason: "either end_recurrence or max_occurrences is required"}
	}
	return nil
}

// Expand materializes the future occurrences of a recurring base event.
//
// Each occurrence copies the base event, preserves its duration, gets a fresh
// id, carries no recurrence of its own, and points back via ParentEventID.
// The base start itself is skipped: it already exists as the base event.
//
// Expansion is deterministic: two calls on an identical definition yield the
// same occurrence start dates. Callers are responsible for not inserting the
// result twice.
func Expand(base Event, now time.Time) ([]Event, error) {
	r := base.Recurrence
	if r == nil {
		return nil, nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	freq, _ := r.frequency()

	// rrule works at second precision; feed it a truncated cursor and re-add
	// the sub-second part, so every occurrence start is exactly a whole number
	// of periods after the base start.
	start := base.Start.Truncate(time.Second)
	frac := base.Start.Sub(start)
	dur := base.End.Sub(base.Start)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: r.Interval,
		Dtstart:  start,
	})
	if err != nil {
		return nil, &InvalidRecurrenceError{Reason: err.Error()}
	}

	var out []Event
	next := rule.Iterator()
	for {
		d, ok := next()
		if !ok {
			break
		}
		if d.Equal(start) {
			continue
		}
		occStart := d.Add(frac)
		if r.EndRecurrence != nil && occStart.After(*r.EndRecurrence) {
			break
		}
		if r.MaxOccurrences > 0 && len(out) >= r.MaxOccurrences-1 {
			break
		}
		if len(out) >= maxExpansionPerEvent {
			break
		}

		child := base
		child.ID = uuid.NewString()
		child.Start = occStart
		child.End = occStart.Add(dur)
		child.Recurrence = nil
		child.ParentEventID = base.ID
		child.Changes = nil
		child.AssignedTo = append([]Assignee(nil), base.AssignedTo...)
		child.Equipment = append([]EquipmentUse(nil), base.Equipment...)
		child.CreatedAt = now
		child.UpdatedAt = now
		out = append(out, child)
	}
	return out, nil
}
