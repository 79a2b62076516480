package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDay is a Monday.
var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestSetup() (*Service, *fakeMasterStore, *fakeReservationStore) {
	master := newFakeMasterStore()
	master.stylists["sty-1"] = model.Stylist{ID: "sty-1", Name: "Ana", Active: true, Version: 1}
	master.services["svc-cut"] = model.Service{
		ID: "svc-cut", CategoryID: "cat-1", Name: "Cut", DurationMinutes: 45, Price: "25.00", Available: true, Version: 1,
	}
	// Monday 09:00-18:00, break 13:00-14:00.
	master.setWeekday("sty-1", model.DaySchedule{
		StylistID: "sty-1", Weekday: 1, IsWorking: true,
		StartMinute: 540, EndMinute: 1080,
		HasBreak: true, BreakStartMinute: 780, BreakEndMinute: 840,
		Version: 1,
	})

	store := newFakeReservationStore()
	svc := NewService(master, store, NewMemoryLock(), testLogger(), Config{})
	svc.now = func() time.Time { return testDay.Add(8 * time.Hour) }
	return svc, master, store
}

func TestCreate_Success(t *testing.T) {
	svc, _, _ := newTestSetup()

	res, err := svc.Create(context.Background(), CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == "" || res.Status != model.StatusPending {
		t.Fatalf("expected pending reservation with id, got %+v", res)
	}
	if !res.StartTime.Equal(testDay.Add(10*time.Hour)) || !res.EndTime.Equal(testDay.Add(10*time.Hour+45*time.Minute)) {
		t.Fatalf("interval wrong: %v-%v", res.StartTime, res.EndTime)
	}
}

func TestCreate_OverlapRejectedAsSlotTaken(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	}); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	// 10:30 overlaps the 10:00-10:45 reservation.
	_, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-2",
		Day: testDay, StartMinute: 630,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeSlotTaken {
		t.Fatalf("expected SLOT_TAKEN, got %v", err)
	}

	// 10:45 abuts the previous reservation and must be accepted.
	if _, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-2",
		Day: testDay, StartMinute: 645,
	}); err != nil {
		t.Fatalf("abutting reservation rejected: %v", err)
	}
}

func TestCreate_OutsideWorkingHours(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	cases := []struct {
		name        string
		startMinute int
	}{
		{"before opening", 480},
		{"runs past closing", 1050},
		{"overlaps fixed break", 765},
		{"inside break", 790},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, CreateCommand{
			StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
			Day: testDay, StartMinute: tc.startMinute,
		})
		re, ok := AsRuleError(err)
		if !ok || re.Code != CodeOutsideWorkingHours {
			t.Fatalf("%s: expected OUTSIDE_WORKING_HOURS, got %v", tc.name, err)
		}
	}
}

func TestCreate_NonWorkingDay(t *testing.T) {
	svc, _, _ := newTestSetup()

	sunday := testDay.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: sunday, StartMinute: 600,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeOutsideWorkingHours {
		t.Fatalf("expected OUTSIDE_WORKING_HOURS on a day without a template, got %v", err)
	}
}

func TestCreate_BlockoutCoversSlot(t *testing.T) {
	svc, master, _ := newTestSetup()
	master.blockouts = append(master.blockouts, model.Blockout{
		ID: "b-1", StylistID: "sty-1",
		Start: testDay.Add(10 * time.Hour), End: testDay.Add(12 * time.Hour),
		Version: 1,
	})

	_, err := svc.Create(context.Background(), CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 630,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeOutsideWorkingHours {
		t.Fatalf("expected OUTSIDE_WORKING_HOURS during blockout, got %v", err)
	}
}

func TestCreate_InactiveStylistAndUnavailableService(t *testing.T) {
	svc, master, _ := newTestSetup()
	ctx := context.Background()

	master.stylists["sty-2"] = model.Stylist{ID: "sty-2", Name: "Bea", Active: false, Version: 1}
	_, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-2", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if re, ok := AsRuleError(err); !ok || re.Code != CodeStylistInactive {
		t.Fatalf("expected STYLIST_INACTIVE, got %v", err)
	}

	master.services["svc-off"] = model.Service{
		ID: "svc-off", Name: "Retired", DurationMinutes: 30, Available: false, Version: 2,
	}
	_, err = svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-off", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if re, ok := AsRuleError(err); !ok || re.Code != CodeServiceUnavailable {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}

func TestCancel_FreesTheSlot(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, res.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// The same slot is immediately bookable again.
	if _, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-2",
		Day: testDay, StartMinute: 600,
	}); err != nil {
		t.Fatalf("slot not freed after cancellation: %v", err)
	}
}

func TestChangeStatus_FullLifecycle(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.ChangeStatus(ctx, res.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	// Starting before the reservation's start time is rejected.
	_, err = svc.ChangeStatus(ctx, res.ID, model.StatusInProgress)
	if re, ok := AsRuleError(err); !ok || re.Code != CodeInvalidStateTransition {
		t.Fatalf("expected INVALID_STATE_TRANSITION before start, got %v", err)
	}

	svc.now = func() time.Time { return testDay.Add(10*time.Hour + 5*time.Minute) }
	if _, err := svc.ChangeStatus(ctx, res.ID, model.StatusInProgress); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	svc.now = func() time.Time { return testDay.Add(11 * time.Hour) }
	final, err := svc.ChangeStatus(ctx, res.ID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if final.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}

	// Terminal: nothing further is allowed.
	_, err = svc.ChangeStatus(ctx, res.ID, model.StatusCancelled)
	if re, ok := AsRuleError(err); !ok || re.Code != CodeInvalidStateTransition {
		t.Fatalf("expected terminal rejection, got %v", err)
	}
}

func TestReschedule_MovesOnlyTheInterval(t *testing.T) {
	svc, _, store := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.ChangeStatus(ctx, res.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	nextMonday := testDay.AddDate(0, 0, 7)
	moved, err := svc.Reschedule(ctx, RescheduleCommand{
		ReservationID: res.ID, Day: nextMonday, StartMinute: 540,
	})
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if !moved.Day.Equal(nextMonday) || !moved.StartTime.Equal(nextMonday.Add(9*time.Hour)) {
		t.Fatalf("interval not moved: %+v", moved)
	}
	if moved.Status != model.StatusConfirmed {
		t.Fatalf("reschedule must not change status, got %s", moved.Status)
	}

	stored, _ := store.Get(ctx, res.ID)
	if !stored.Day.Equal(nextMonday) {
		t.Fatalf("store not updated: %+v", stored)
	}
}

func TestReschedule_RejectionLeavesReservationUntouched(t *testing.T) {
	svc, _, store := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-2",
		Day: testDay, StartMinute: 660,
	}); err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	// Target overlaps the 11:00-11:45 reservation.
	_, err = svc.Reschedule(ctx, RescheduleCommand{
		ReservationID: res.ID, Day: testDay, StartMinute: 675,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeSlotTaken {
		t.Fatalf("expected SLOT_TAKEN, got %v", err)
	}

	stored, _ := store.Get(ctx, res.ID)
	if !stored.StartTime.Equal(testDay.Add(10 * time.Hour)) {
		t.Fatalf("rejected reschedule must leave the original slot, got %v", stored.StartTime)
	}
}

func TestReschedule_SelfOverlapAllowed(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Shift by 15 minutes; the new interval overlaps the old one, which
	// must not count as a conflict with itself.
	if _, err := svc.Reschedule(ctx, RescheduleCommand{
		ReservationID: res.ID, Day: testDay, StartMinute: 615,
	}); err != nil {
		t.Fatalf("self-overlapping reschedule rejected: %v", err)
	}
}

func TestReschedule_TerminalRejected(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = svc.Reschedule(ctx, RescheduleCommand{
		ReservationID: res.ID, Day: testDay, StartMinute: 900,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeInvalidStateTransition {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestCreate_ConcurrentSameSlotOnlyOneWins(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, CreateCommand{
				StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
				Day: testDay, StartMinute: 600,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		if re, ok := AsRuleError(err); !ok || re.Code != CodeSlotTaken {
			t.Fatalf("loser got unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestCreate_ConflictRetriesExhausted(t *testing.T) {
	svc, _, store := newTestSetup()
	store.forceConflicts = 100

	_, err := svc.Create(context.Background(), CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	re, ok := AsRuleError(err)
	if !ok || re.Code != CodeSlotTaken {
		t.Fatalf("expected SLOT_TAKEN after exhausting retries, got %v", err)
	}
}

func TestCreate_LockTimeout(t *testing.T) {
	svc, _, _ := newTestSetup()
	svc.lockWait = 50 * time.Millisecond

	release, err := svc.locks.Acquire(context.Background(), "sty-1|"+testDay.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("seed acquire failed: %v", err)
	}
	defer release()

	_, err = svc.Create(context.Background(), CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 600,
	})
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestFreeSlots(t *testing.T) {
	svc, _, _ := newTestSetup()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{
		StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-1",
		Day: testDay, StartMinute: 540,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	slots, err := svc.FreeSlots(ctx, "sty-1", "svc-cut", testDay)
	if err != nil {
		t.Fatalf("free slots failed: %v", err)
	}
	if len(slots) == 0 {
		t.Fatalf("expected some free slots")
	}
	reservedStart := testDay.Add(9 * time.Hour)
	reservedEnd := reservedStart.Add(45 * time.Minute)
	for _, s := range slots {
		if s.Start.Before(reservedEnd) && reservedStart.Before(s.End) {
			t.Fatalf("slot %v-%v overlaps the existing reservation", s.Start, s.End)
		}
		if s.Start.Before(testDay.Add(9 * time.Hour)) {
			t.Fatalf("slot before opening: %v", s.Start)
		}
	}
}

func TestFreeSlots_UnavailableService(t *testing.T) {
	svc, master, _ := newTestSetup()
	master.services["svc-off"] = model.Service{ID: "svc-off", DurationMinutes: 30, Available: false}

	_, err := svc.FreeSlots(context.Background(), "sty-1", "svc-off", testDay)
	if re, ok := AsRuleError(err); !ok || re.Code != CodeServiceUnavailable {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}
