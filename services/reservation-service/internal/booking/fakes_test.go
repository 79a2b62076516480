package booking

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

type fakeMasterStore struct {
	stylists  map[string]model.Stylist
	services  map[string]model.Service
	schedules map[string]map[int]model.DaySchedule
	blockouts []model.Blockout
}

func newFakeMasterStore() *fakeMasterStore {
	return &fakeMasterStore{
		stylists:  make(map[string]model.Stylist),
		services:  make(map[string]model.Service),
		schedules: make(map[string]map[int]model.DaySchedule),
	}
}

func (f *fakeMasterStore) GetStylist(_ context.Context, id string) (model.Stylist, error) {
	s, ok := f.stylists[id]
	if !ok {
		return model.Stylist{}, fmt.Errorf("stylist %s: %w", id, model.ErrNotFound)
	}
	return s, nil
}

func (f *fakeMasterStore) GetService(_ context.Context, id string) (model.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return model.Service{}, fmt.Errorf("service %s: %w", id, model.ErrNotFound)
	}
	return s, nil
}

func (f *fakeMasterStore) GetDaySchedule(_ context.Context, stylistID string, weekday time.Weekday) (model.DaySchedule, error) {
	week, ok := f.schedules[stylistID]
	if !ok {
		return model.DaySchedule{}, model.ErrNotFound
	}
	d, ok := week[int(weekday)]
	if !ok {
		return model.DaySchedule{}, model.ErrNotFound
	}
	return d, nil
}

func (f *fakeMasterStore) ListBlockoutsInRange(_ context.Context, stylistID string, from, to time.Time) ([]model.Blockout, error) {
	var out []model.Blockout
	for _, b := range f.blockouts {
		if b.StylistID == stylistID && b.End.After(from) && b.Start.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeMasterStore) setWeekday(stylistID string, d model.DaySchedule) {
	if f.schedules[stylistID] == nil {
		f.schedules[stylistID] = make(map[int]model.DaySchedule)
	}
	f.schedules[stylistID][d.Weekday] = d
}

type fakeReservationStore struct {
	mu           sync.Mutex
	seq          int
	reservations map[string]model.Reservation

	// forceConflicts makes the next N Insert/UpdateInterval calls fail as
	// if the database overlap constraint fired.
	forceConflicts int
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{reservations: make(map[string]model.Reservation)}
}

func (f *fakeReservationStore) Get(_ context.Context, id string) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (f *fakeReservationStore) ListActiveForStylistOnDay(_ context.Context, stylistID string, day time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.StylistID == stylistID && r.Day.Equal(day) && r.Status.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) Insert(_ context.Context, res *model.Reservation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceConflicts > 0 {
		f.forceConflicts--
		return "", model.ErrSlotConflict
	}
	f.seq++
	id := "r-" + strconv.Itoa(f.seq)
	stored := *res
	stored.ID = id
	f.reservations[id] = stored
	return id, nil
}

func (f *fakeReservationStore) UpdateStatus(_ context.Context, id string, status model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return model.ErrNotFound
	}
	r.Status = status
	f.reservations[id] = r
	return nil
}

func (f *fakeReservationStore) UpdateInterval(_ context.Context, id string, day, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceConflicts > 0 {
		f.forceConflicts--
		return model.ErrSlotConflict
	}
	r, ok := f.reservations[id]
	if !ok {
		return model.ErrNotFound
	}
	r.Day = day
	r.StartTime = start
	r.EndTime = end
	f.reservations[id] = r
	return nil
}

func (f *fakeReservationStore) ListByClient(_ context.Context, clientID string, _ int) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) ListForStylistInRange(_ context.Context, stylistID string, from, to time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.StylistID == stylistID && !r.Day.Before(from) && !r.Day.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) ListAll(_ context.Context, _ int) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		out = append(out, r)
	}
	return out, nil
}
