package schedule

import (
	"testing"
	"time"
)

func at(day time.Time, hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestOverlaps_AbuttingDoNot(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a := Interval{Start: at(day, 9, 0), End: at(day, 10, 0)}
	b := Interval{Start: at(day, 10, 0), End: at(day, 11, 0)}

	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatalf("abutting intervals must not overlap")
	}

	c := Interval{Start: at(day, 9, 59), End: at(day, 10, 30)}
	if !a.Overlaps(c) || !c.Overlaps(a) {
		t.Fatalf("expected one-minute intersection to overlap")
	}
}

func TestContains(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 17, 0)}

	if !window.Contains(Interval{Start: at(day, 9, 0), End: at(day, 17, 0)}) {
		t.Fatalf("interval must contain itself")
	}
	if !window.Contains(Interval{Start: at(day, 16, 30), End: at(day, 17, 0)}) {
		t.Fatalf("interval ending at window end must be contained")
	}
	if window.Contains(Interval{Start: at(day, 16, 30), End: at(day, 17, 1)}) {
		t.Fatalf("interval crossing window end must not be contained")
	}
}

func TestSubtract_OrderedRemainder(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 18, 0)}
	holes := []Interval{
		{Start: at(day, 14, 0), End: at(day, 15, 0)},
		{Start: at(day, 10, 0), End: at(day, 11, 0)},
	}

	got := Subtract(window, holes)
	want := []Interval{
		{Start: at(day, 9, 0), End: at(day, 10, 0)},
		{Start: at(day, 11, 0), End: at(day, 14, 0)},
		{Start: at(day, 15, 0), End: at(day, 18, 0)},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("interval %d: expected %v-%v, got %v-%v", i, want[i].Start, want[i].End, got[i].Start, got[i].End)
		}
	}
}

func TestSubtract_OverlappingHoles(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}
	holes := []Interval{
		{Start: at(day, 9, 30), End: at(day, 10, 30)},
		{Start: at(day, 10, 0), End: at(day, 11, 0)},
	}

	got := Subtract(window, holes)
	if len(got) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(got))
	}
	if !got[0].End.Equal(at(day, 9, 30)) || !got[1].Start.Equal(at(day, 11, 0)) {
		t.Fatalf("overlapping holes merged wrong: %+v", got)
	}
}

func TestSubtract_HoleOutsideWindowIgnored(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}
	holes := []Interval{
		{Start: at(day, 14, 0), End: at(day, 15, 0)},
	}

	got := Subtract(window, holes)
	if len(got) != 1 || !got[0].Start.Equal(window.Start) || !got[0].End.Equal(window.End) {
		t.Fatalf("hole outside window must leave it intact, got %+v", got)
	}
}

func TestSubtract_FullyCovered(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}
	holes := []Interval{
		{Start: at(day, 8, 0), End: at(day, 13, 0)},
	}

	if got := Subtract(window, holes); len(got) != 0 {
		t.Fatalf("fully covered window must resolve empty, got %+v", got)
	}
}

func TestMinuteOfDay(t *testing.T) {
	day := time.Date(2026, 3, 2, 15, 42, 0, 0, time.UTC)
	got := MinuteOfDay(day, 570)
	want := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
