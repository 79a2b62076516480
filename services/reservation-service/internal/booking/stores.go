package booking

import (
	"context"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

// MasterDataStore is the read side of the synced master data.
// Implementations return model.ErrNotFound for absent entities.
type MasterDataStore interface {
	GetStylist(ctx context.Context, id string) (model.Stylist, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	GetDaySchedule(ctx context.Context, stylistID string, weekday time.Weekday) (model.DaySchedule, error)
	ListBlockoutsInRange(ctx context.Context, stylistID string, from, to time.Time) ([]model.Blockout, error)
}

// ReservationStore persists reservations. Insert and UpdateInterval return
// model.ErrSlotConflict when the write would overlap another active
// reservation for the same stylist; lookups return model.ErrNotFound.
type ReservationStore interface {
	Get(ctx context.Context, id string) (model.Reservation, error)
	ListActiveForStylistOnDay(ctx context.Context, stylistID string, day time.Time) ([]model.Reservation, error)
	Insert(ctx context.Context, res *model.Reservation) (string, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	UpdateInterval(ctx context.Context, id string, day, start, end time.Time) error

	ListByClient(ctx context.Context, clientID string, limit int) ([]model.Reservation, error)
	ListForStylistInRange(ctx context.Context, stylistID string, from, to time.Time) ([]model.Reservation, error)
	ListAll(ctx context.Context, limit int) ([]model.Reservation, error)
}
