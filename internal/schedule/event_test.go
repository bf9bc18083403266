package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNewEventDefaults(t *testing.T) {
	t.Parallel()
	now := time.Now()

	ev, err := NewEvent(Draft{
		Type:  TypeServiceOrder,
		Start: at(9),
		End:   at(12),
	}, now)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("id must be assigned at creation")
	}
	if ev.Status != StatusScheduled {
		t.Fatalf("new event status = %s, want scheduled", ev.Status)
	}
	if ev.Title == "" || ev.Color == "" {
		t.Fatalf("type defaults not applied: title=%q color=%q", ev.Title, ev.Color)
	}
	if ev.Priority != PriorityMedium {
		t.Fatalf("default priority = %s, want medium", ev.Priority)
	}

	// Explicit values win over defaults.
	ev2, err := NewEvent(Draft{
		Title: "Stump grinding", Color: "#123456", Priority: PriorityHigh,
		Type: TypeServiceOrder, Start: at(9), End: at(12),
	}, now)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if ev2.Title != "Stump grinding" || ev2.Color != "#123456" || ev2.Priority != PriorityHigh {
		t.Fatalf("explicit draft values overridden: %+v", ev2)
	}
}

func TestNewEventRejectsInvalidInterval(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		name       string
		start, end time.Time
	}{
		{name: "reversed", start: at(12), end: at(9)},
		{name: "zero length", start: at(9), end: at(9)},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(Draft{Start: tt.start, End: tt.end}, time.Now())
			var ierr *InvalidIntervalError
			if !errors.As(err, &ierr) {
				t.Fatalf("expected InvalidIntervalError, got %v", err)
			}
		})
	}
}

func TestNewEventRejectsUnboundedRecurrence(t *testing.T) {
	t.Parallel()
	_, err := NewEvent(Draft{
		Start: at(9), End: at(12),
		Recurrence: &Recurrence{Pattern: PatternDaily, Interval: 1},
	}, time.Now())
	var rerr *InvalidRecurrenceError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected InvalidRecurrenceError, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusRescheduled, StatusScheduled, true},
		{StatusRescheduled, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCompleted, StatusScheduled, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.ok {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
			}
		})
	}
}

func TestTransitionRecordsChange(t *testing.T) {
	t.Parallel()
	now := time.Now()
	ev, err := NewEvent(Draft{Type: TypeInspection, Start: at(9), End: at(10)}, now)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	if err := ev.Transition(StatusConfirmed, "dispatcher", now); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if ev.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", ev.Status)
	}
	if len(ev.Changes) != 1 {
		t.Fatalf("expected 1 change entry, got %d", len(ev.Changes))
	}
	c := ev.Changes[0]
	if c.Field != "status" || c.Old != "scheduled" || c.New != "confirmed" || c.Actor != "dispatcher" {
		t.Fatalf("unexpected change entry: %+v", c)
	}

	var terr *TransitionError
	if err := ev.Transition(StatusScheduled, "dispatcher", now); !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}
