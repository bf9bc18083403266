package schedule

import (
	"testing"
	"time"
)

func testEvent(id string, start, end time.Time, status Status) Event {
	return Event{
		ID:     id,
		Title:  "order " + id,
		Type:   TypeServiceOrder,
		Start:  start,
		End:    end,
		Status: status,
	}
}

func withEquipment(ev Event, ids ...string) Event {
	for _, id := range ids {
		ev.Equipment = append(ev.Equipment, EquipmentUse{EquipmentID: id, Quantity: 1})
	}
	return ev
}

func withPeople(ev Event, ids ...string) Event {
	for _, id := range ids {
		ev.AssignedTo = append(ev.AssignedTo, Assignee{PersonID: id, Role: "technician"})
	}
	return ev
}

func TestFindConflictsResourceScope(t *testing.T) {
	t.Parallel()
	candidate := Interval{Start: at(10), End: at(12)}

	active := []Event{
		withEquipment(testEvent("e1", at(9), at(11), StatusScheduled), "E3"),
		withEquipment(testEvent("e2", at(9), at(11), StatusScheduled), "E2"),
		withPeople(testEvent("e3", at(11), at(13), StatusConfirmed), "P1"),
	}

	got := FindConflicts(candidate, EquipmentSet("E3"), "", active)
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("expected only e1 for E3 scope, got %d events", len(got))
	}

	got = FindConflicts(candidate, PeopleSet("P1"), "", active)
	if len(got) != 1 || got[0].ID != "e3" {
		t.Fatalf("expected only e3 for P1 scope, got %d events", len(got))
	}

	got = FindConflicts(candidate, ResourceSet{People: []string{"P1"}, Equipment: []string{"E2", "E3"}}, "", active)
	if len(got) != 3 {
		t.Fatalf("expected all three events for the combined scope, got %d", len(got))
	}
}

func TestFindConflictsStatusFilter(t *testing.T) {
	t.Parallel()
	candidate := Interval{Start: at(10), End: at(12)}

	tests := []struct {
		status Status
		want   bool
	}{
		{StatusScheduled, true},
		{StatusConfirmed, true},
		{StatusInProgress, true},
		{StatusCompleted, false},
		{StatusCancelled, false},
		{StatusRescheduled, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.status), func(t *testing.T) {
			active := []Event{withEquipment(testEvent("x", at(10), at(12), tt.status), "E1")}
			got := FindConflicts(candidate, EquipmentSet("E1"), "", active)
			if (len(got) > 0) != tt.want {
				t.Fatalf("status %s: conflicts=%d, want conflict=%v", tt.status, len(got), tt.want)
			}
		})
	}
}

func TestFindConflictsSelfExclusion(t *testing.T) {
	t.Parallel()
	ev := withEquipment(testEvent("self", at(10), at(12), StatusScheduled), "E1")
	got := FindConflicts(ev.Interval(), EquipmentSet("E1"), "self", []Event{ev})
	if len(got) != 0 {
		t.Fatalf("event must never conflict with itself, got %d", len(got))
	}
}

func TestFindConflictsEmptyScope(t *testing.T) {
	t.Parallel()
	ev := withEquipment(testEvent("e1", at(10), at(12), StatusScheduled), "E1")
	got := FindConflicts(ev.Interval(), ResourceSet{}, "", []Event{ev})
	if got != nil {
		t.Fatal("empty resource scope must never conflict")
	}
}

func TestFindConflictsBoundaryExactness(t *testing.T) {
	t.Parallel()
	existing := withEquipment(testEvent("e1", at(8), at(10), StatusScheduled), "E1")
	candidate := Interval{Start: at(10), End: at(12)}
	if got := FindConflicts(candidate, EquipmentSet("E1"), "", []Event{existing}); len(got) != 0 {
		t.Fatal("booking starting exactly at another's end must not conflict")
	}
}
