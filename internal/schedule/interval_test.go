package schedule

import (
	"testing"
	"time"
)

func at(h int) time.Time {
	return time.Date(2025, 9, 7, h, 0, 0, 0, time.UTC)
}

// naiveOverlaps is the three-clause formulation the single predicate
// replaces. Kept here only to prove equivalence on the boundary cases.
func naiveOverlaps(a, b Interval) bool {
	startsDuring := !a.Start.Before(b.Start) && a.Start.Before(b.End)
	endsDuring := a.End.After(b.Start) && !a.End.After(b.End)
	encloses := a.Start.Before(b.Start) && a.End.After(b.End)
	return startsDuring || endsDuring || encloses
}

func TestOverlapsPlacements(t *testing.T) {
	t.Parallel()
	b := Interval{Start: at(10), End: at(14)}

	tests := []struct {
		name string
		a    Interval
		want bool
	}{
		{name: "disjoint before", a: Interval{Start: at(6), End: at(8)}, want: false},
		{name: "touching at boundary", a: Interval{Start: at(8), End: at(10)}, want: false},
		{name: "partial overlap left", a: Interval{Start: at(9), End: at(11)}, want: true},
		{name: "fully enclosing", a: Interval{Start: at(9), End: at(15)}, want: true},
		{name: "partial overlap right", a: Interval{Start: at(13), End: at(15)}, want: true},
		{name: "disjoint after", a: Interval{Start: at(15), End: at(17)}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, b); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, b, got, tt.want)
			}
			// Must be symmetric.
			if got := Overlaps(b, tt.a); got != tt.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v (asymmetric)", got, tt.want)
			}
			// Must agree with the enumerated three-clause form.
			if got := naiveOverlaps(tt.a, b); got != tt.want {
				t.Fatalf("naiveOverlaps disagrees on %s: %v", tt.name, got)
			}
		})
	}
}

func TestHalfOpenBackToBack(t *testing.T) {
	t.Parallel()
	a := Interval{Start: at(8), End: at(10)}
	b := Interval{Start: at(10), End: at(12)}
	if Overlaps(a, b) {
		t.Fatal("a.End == b.Start must not overlap (half-open convention)")
	}
}

func TestIntervalValid(t *testing.T) {
	t.Parallel()
	if (Interval{Start: at(10), End: at(10)}).Valid() {
		t.Fatal("zero-length interval must be invalid")
	}
	if (Interval{Start: at(11), End: at(10)}).Valid() {
		t.Fatal("reversed interval must be invalid")
	}
	if !(Interval{Start: at(10), End: at(11)}).Valid() {
		t.Fatal("normal interval must be valid")
	}
}

func TestClip(t *testing.T) {
	t.Parallel()
	bounds := Interval{Start: at(9), End: at(17)}

	got, ok := (Interval{Start: at(8), End: at(12)}).Clip(bounds)
	if !ok || !got.Start.Equal(at(9)) || !got.End.Equal(at(12)) {
		t.Fatalf("clip left: got %v ok=%v", got, ok)
	}

	got, ok = (Interval{Start: at(16), End: at(20)}).Clip(bounds)
	if !ok || !got.Start.Equal(at(16)) || !got.End.Equal(at(17)) {
		t.Fatalf("clip right: got %v ok=%v", got, ok)
	}

	if _, ok := (Interval{Start: at(18), End: at(20)}).Clip(bounds); ok {
		t.Fatal("interval outside bounds must not clip")
	}
}
