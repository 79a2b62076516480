package schedule

import "time"

// SlotStarts returns bookable start times of the given duration inside the
// free intervals, stepped by step. Start times already in the past relative
// to now are skipped.
func SlotStarts(free []Interval, duration, step time.Duration, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for _, iv := range free {
		for t := iv.Start; !t.Add(duration).After(iv.End); t = t.Add(step) {
			if t.Before(now) {
				continue
			}
			slots = append(slots, t)
		}
	}
	return slots
}
