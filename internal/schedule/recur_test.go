package schedule

import (
	"errors"
	"testing"
	"time"
)

func recurringBase(r *Recurrence) Event {
	return Event{
		ID:         "base",
		Title:      "Crew A pruning",
		Type:       TypeServiceOrder,
		Start:      time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
		Status:     StatusScheduled,
		Recurrence: r,
	}
}

func TestExpandWeeklyCount(t *testing.T) {
	t.Parallel()
	base := recurringBase(&Recurrence{Pattern: PatternWeekly, Interval: 1, MaxOccurrences: 5})

	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	// base counts as occurrence #1, so 4 children.
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(got))
	}
	for i, occ := range got {
		wantStart := base.Start.AddDate(0, 0, 7*(i+1))
		if !occ.Start.Equal(wantStart) {
			t.Fatalf("occurrence %d: start %v, want %v", i, occ.Start, wantStart)
		}
		if occ.End.Sub(occ.Start) != base.End.Sub(base.Start) {
			t.Fatalf("occurrence %d: duration changed", i)
		}
		if occ.ParentEventID != base.ID {
			t.Fatalf("occurrence %d: parent id %q", i, occ.ParentEventID)
		}
		if occ.Recurrence != nil {
			t.Fatalf("occurrence %d must not carry a recurrence definition", i)
		}
		if occ.ID == base.ID || occ.ID == "" {
			t.Fatalf("occurrence %d: bad id %q", i, occ.ID)
		}
	}
}

func TestExpandSkipsBaseStart(t *testing.T) {
	t.Parallel()
	base := recurringBase(&Recurrence{Pattern: PatternDaily, Interval: 1, MaxOccurrences: 3})
	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	for _, occ := range got {
		if occ.Start.Equal(base.Start) {
			t.Fatal("base start date must not be re-emitted")
		}
	}
}

func TestExpandEndRecurrenceInclusive(t *testing.T) {
	t.Parallel()
	// Daily from Sep 1; last allowed start is Sep 4 inclusive -> 3 children.
	end := time.Date(2025, 9, 4, 9, 0, 0, 0, time.UTC)
	base := recurringBase(&Recurrence{Pattern: PatternDaily, Interval: 1, EndRecurrence: &end})

	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 occurrences up to the inclusive end, got %d", len(got))
	}
	if last := got[len(got)-1].Start; !last.Equal(end) {
		t.Fatalf("last occurrence %v, want %v", last, end)
	}
}

func TestExpandWhicheverLimitFirst(t *testing.T) {
	t.Parallel()
	end := time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC)

	// Count cuts before the end date.
	base := recurringBase(&Recurrence{Pattern: PatternDaily, Interval: 1, EndRecurrence: &end, MaxOccurrences: 3})
	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("max_occurrences should cut first: got %d children, want 2", len(got))
	}

	// End date cuts before the count.
	shortEnd := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)
	base = recurringBase(&Recurrence{Pattern: PatternDaily, Interval: 1, EndRecurrence: &shortEnd, MaxOccurrences: 50})
	got, err = Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("end_recurrence should cut first: got %d children, want 1", len(got))
	}
}

func TestExpandMonthlyAndYearly(t *testing.T) {
	t.Parallel()
	base := recurringBase(&Recurrence{Pattern: PatternMonthly, Interval: 2, MaxOccurrences: 3})
	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 monthly occurrences, got %d", len(got))
	}
	if want := base.Start.AddDate(0, 2, 0); !got[0].Start.Equal(want) {
		t.Fatalf("monthly step: %v, want %v", got[0].Start, want)
	}

	base = recurringBase(&Recurrence{Pattern: PatternYearly, Interval: 1, MaxOccurrences: 2})
	got, err = Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 yearly occurrence, got %d", len(got))
	}
	if want := base.Start.AddDate(1, 0, 0); !got[0].Start.Equal(want) {
		t.Fatalf("yearly step: %v, want %v", got[0].Start, want)
	}
}

func TestExpandKeepsSubSecondStart(t *testing.T) {
	t.Parallel()
	base := recurringBase(&Recurrence{Pattern: PatternWeekly, Interval: 1, MaxOccurrences: 3})
	base.Start = base.Start.Add(250 * time.Millisecond)
	base.End = base.End.Add(250 * time.Millisecond)

	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	for i, occ := range got {
		wantStart := base.Start.AddDate(0, 0, 7*(i+1))
		if !occ.Start.Equal(wantStart) {
			t.Fatalf("occurrence %d: start %v drifted from %v", i, occ.Start, wantStart)
		}
		if !occ.End.Equal(wantStart.Add(base.End.Sub(base.Start))) {
			t.Fatalf("occurrence %d: end %v", i, occ.End)
		}
	}
}

func TestExpandIdempotentStartDates(t *testing.T) {
	t.Parallel()
	base := recurringBase(&Recurrence{Pattern: PatternWeekly, Interval: 2, MaxOccurrences: 6})

	first, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	second, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expansion not repeatable: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) {
			t.Fatalf("occurrence %d start differs: %v vs %v", i, first[i].Start, second[i].Start)
		}
	}
}

func TestRecurrenceValidation(t *testing.T) {
	t.Parallel()
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		r    Recurrence
		ok   bool
	}{
		{name: "count only", r: Recurrence{Pattern: PatternDaily, Interval: 1, MaxOccurrences: 5}, ok: true},
		{name: "end only", r: Recurrence{Pattern: PatternWeekly, Interval: 1, EndRecurrence: &end}, ok: true},
		{name: "no termination", r: Recurrence{Pattern: PatternDaily, Interval: 1}, ok: false},
		{name: "zero interval", r: Recurrence{Pattern: PatternDaily, Interval: 0, MaxOccurrences: 5}, ok: false},
		{name: "negative interval", r: Recurrence{Pattern: PatternDaily, Interval: -2, MaxOccurrences: 5}, ok: false},
		{name: "unknown pattern", r: Recurrence{Pattern: "hourly", Interval: 1, MaxOccurrences: 5}, ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate: unexpected error %v", err)
			}
			if !tt.ok {
				var rerr *InvalidRecurrenceError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected InvalidRecurrenceError, got %v", err)
				}
			}
		})
	}
}

func TestExpandNonRecurring(t *testing.T) {
	t.Parallel()
	base := recurringBase(nil)
	got, err := Expand(base, time.Now())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got != nil {
		t.Fatalf("non-recurring event must expand to nothing, got %d", len(got))
	}
}
