package booking

import (
	"context"
	"errors"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
	"github.com/salonworks/stylebook/services/reservation-service/internal/schedule"
)

// Candidate is a reservation request to validate: a stylist, a service
// (whose duration determines the end time) and a start offset on a day.
// ExcludeReservationID removes one reservation from the active set so a
// reschedule does not conflict with its own current slot.
type Candidate struct {
	StylistID            string
	ServiceID            string
	Day                  time.Time // midnight, salon-local
	StartMinute          int
	ExcludeReservationID string
}

// Validator is the single source of truth for "is this slot free". It is
// read-only and used identically at creation and at reschedule time.
type Validator struct {
	master       MasterDataStore
	reservations ReservationStore
}

func NewValidator(master MasterDataStore, reservations ReservationStore) *Validator {
	return &Validator{master: master, reservations: reservations}
}

// Validate returns the concrete [start, end) interval the candidate would
// occupy, or a RuleError naming why it is rejected. Acceptance implies the
// interval lies within the stylist's resolved free time, which already
// excludes breaks, blockouts and every other active reservation.
func (v *Validator) Validate(ctx context.Context, c Candidate) (schedule.Interval, error) {
	svc, err := v.master.GetService(ctx, c.ServiceID)
	if err != nil {
		return schedule.Interval{}, err
	}
	if !svc.Available || svc.DurationMinutes <= 0 {
		return schedule.Interval{}, ruleErr(CodeServiceUnavailable, "service is not available for booking")
	}

	sty, err := v.master.GetStylist(ctx, c.StylistID)
	if err != nil {
		return schedule.Interval{}, err
	}
	if !sty.Active {
		return schedule.Interval{}, ruleErr(CodeStylistInactive, "stylist is not active")
	}

	snap, err := v.loadDaySnapshot(ctx, c.StylistID, c.Day, c.ExcludeReservationID)
	if err != nil {
		return schedule.Interval{}, err
	}

	candidate := schedule.Interval{
		Start: schedule.MinuteOfDay(c.Day, c.StartMinute),
		End:   schedule.MinuteOfDay(c.Day, c.StartMinute+svc.DurationMinutes),
	}

	for _, free := range schedule.FreeIntervals(c.Day, snap) {
		if free.Contains(candidate) {
			return candidate, nil
		}
	}

	// The candidate does not fit the free set. If it would fit the working
	// window (minus breaks and blockouts), another reservation is in the
	// way; otherwise the request is outside working hours.
	for _, open := range schedule.WorkingIntervals(c.Day, snap) {
		if open.Contains(candidate) {
			return schedule.Interval{}, ruleErr(CodeSlotTaken, "another reservation occupies the requested time")
		}
	}
	return schedule.Interval{}, ruleErr(CodeOutsideWorkingHours, "requested time is outside the stylist's working hours")
}

// loadDaySnapshot assembles a consistent stylist-day view for the resolver.
// A missing weekly template entry counts as a non-working day.
func (v *Validator) loadDaySnapshot(ctx context.Context, stylistID string, day time.Time, excludeID string) (schedule.DaySnapshot, error) {
	var snap schedule.DaySnapshot

	sched, err := v.master.GetDaySchedule(ctx, stylistID, day.Weekday())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return snap, nil
		}
		return snap, err
	}
	snap.Template = templateFromSchedule(sched)

	dayStart := schedule.Day(day)
	dayEnd := dayStart.Add(24 * time.Hour)
	blockouts, err := v.master.ListBlockoutsInRange(ctx, stylistID, dayStart, dayEnd)
	if err != nil {
		return snap, err
	}
	for _, b := range blockouts {
		snap.Blockouts = append(snap.Blockouts, schedule.Interval{Start: b.Start, End: b.End})
	}

	active, err := v.reservations.ListActiveForStylistOnDay(ctx, stylistID, dayStart)
	if err != nil {
		return snap, err
	}
	for _, r := range active {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		snap.Reserved = append(snap.Reserved, schedule.Interval{Start: r.StartTime, End: r.EndTime})
	}
	return snap, nil
}

func templateFromSchedule(s model.DaySchedule) schedule.DayTemplate {
	return schedule.DayTemplate{
		Weekday:          time.Weekday(s.Weekday),
		IsWorking:        s.IsWorking,
		StartMinute:      s.StartMinute,
		EndMinute:        s.EndMinute,
		HasBreak:         s.HasBreak,
		BreakStartMinute: s.BreakStartMinute,
		BreakEndMinute:   s.BreakEndMinute,
	}
}
