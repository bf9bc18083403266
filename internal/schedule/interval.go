package schedule

import "time"

// Interval is a half-open time range [Start, End).
//
// The end instant is not part of the range, so a booking ending exactly when
// another starts does not overlap it.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool { return iv.Start.Before(iv.End) }

func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Overlaps reports whether two half-open intervals share any instant.
//
// This single two-clause form replaces the three enumerated cases
// (a starts during b, a ends during b, a encloses b); the boundary tests
// verify both formulations agree.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Overlaps is the function form of Interval.Overlaps.
func Overlaps(a, b Interval) bool { return a.Overlaps(b) }

// Clip returns the part of iv that falls inside bounds.
// ok is false when the two do not overlap at all.
func (iv Interval) Clip(bounds Interval) (Interval, bool) {
	if !iv.Overlaps(bounds) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out, true
}
