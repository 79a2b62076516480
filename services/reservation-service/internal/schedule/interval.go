package schedule

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) time range. All scheduling math works
// at minute granularity in the salon's local wall-clock time; callers are
// expected to pass times already in that location.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two half-open intervals intersect.
// [a,b) overlaps [c,d) iff a < d && c < b, so abutting intervals do not.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Contains reports whether o lies entirely within iv.
func (iv Interval) Contains(o Interval) bool {
	return !o.Start.Before(iv.Start) && !o.End.After(iv.End)
}

// Clip returns the part of iv that falls within bounds. The result may be
// invalid (End <= Start) when there is no intersection.
func (iv Interval) Clip(bounds Interval) Interval {
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Day returns midnight of t's calendar day in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MinuteOfDay converts a minutes-from-midnight offset into a concrete time
// on the given day.
func MinuteOfDay(day time.Time, minute int) time.Time {
	return Day(day).Add(time.Duration(minute) * time.Minute)
}

// Subtract removes the holes from the window and returns the ordered,
// non-overlapping sub-intervals that remain. Holes outside the window are
// ignored; holes that overlap each other are handled by sweeping a cursor.
func Subtract(window Interval, holes []Interval) []Interval {
	if !window.Valid() {
		return nil
	}

	clipped := make([]Interval, 0, len(holes))
	for _, h := range holes {
		h = h.Clip(window)
		if h.Valid() {
			clipped = append(clipped, h)
		}
	}
	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].Start.Before(clipped[j].Start)
	})

	var out []Interval
	cursor := window.Start
	for _, h := range clipped {
		if h.Start.After(cursor) {
			out = append(out, Interval{Start: cursor, End: h.Start})
		}
		if h.End.After(cursor) {
			cursor = h.End
		}
	}
	if cursor.Before(window.End) {
		out = append(out, Interval{Start: cursor, End: window.End})
	}
	return out
}
