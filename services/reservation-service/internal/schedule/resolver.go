package schedule

import "time"

// DayTemplate is one weekday row of a stylist's weekly working template.
// StartMinute/EndMinute bound the working window as minutes from midnight;
// the optional recurring break uses the same encoding. When IsWorking is
// false the window fields are ignored.
type DayTemplate struct {
	Weekday          time.Weekday
	IsWorking        bool
	StartMinute      int
	EndMinute        int
	HasBreak         bool
	BreakStartMinute int
	BreakEndMinute   int
}

// DaySnapshot is a consistent view of everything that constrains one
// stylist-day: the weekly template entry for that weekday, blockout ranges
// intersecting the day (absolute times, possibly spanning several days), and
// the intervals of reservations currently counting against availability.
type DaySnapshot struct {
	Template  DayTemplate
	Blockouts []Interval
	Reserved  []Interval
}

// FreeIntervals resolves the ordered free intervals of a stylist on the
// given day. It is pure: given the same snapshot it always returns the same
// result, and every returned interval lies inside the declared working
// window. A non-working day or a fully blocked day resolves to nil.
func FreeIntervals(day time.Time, snap DaySnapshot) []Interval {
	if !snap.Template.IsWorking {
		return nil
	}

	window := Interval{
		Start: MinuteOfDay(day, snap.Template.StartMinute),
		End:   MinuteOfDay(day, snap.Template.EndMinute),
	}
	if !window.Valid() {
		return nil
	}

	holes := make([]Interval, 0, len(snap.Blockouts)+len(snap.Reserved)+1)
	if snap.Template.HasBreak {
		holes = append(holes, Interval{
			Start: MinuteOfDay(day, snap.Template.BreakStartMinute),
			End:   MinuteOfDay(day, snap.Template.BreakEndMinute),
		})
	}
	holes = append(holes, snap.Blockouts...)
	holes = append(holes, snap.Reserved...)

	return Subtract(window, holes)
}

// WorkingIntervals resolves the free intervals ignoring reservations, i.e.
// the working window minus the fixed break and blockouts. Used to tell a
// slot that is outside working hours apart from one taken by another
// reservation.
func WorkingIntervals(day time.Time, snap DaySnapshot) []Interval {
	withoutReserved := snap
	withoutReserved.Reserved = nil
	return FreeIntervals(day, withoutReserved)
}
