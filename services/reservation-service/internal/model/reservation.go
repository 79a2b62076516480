package model

import "time"

// Reservation references its stylist and service by identifier only; the
// authoritative copies of those entities live in the admin service and are
// mirrored locally by the sync consumer.
type Reservation struct {
	ID        string
	StylistID string
	ServiceID string
	ClientID  string
	Day       time.Time // midnight, salon-local
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
