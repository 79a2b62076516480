package model

import "fmt"

// Status is the lifecycle state of a reservation. Reservations are never
// physically deleted; cancellation and no-show are terminal statuses so the
// booking history stays queryable.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", raw)
}

// Active reports whether the reservation counts against stylist
// availability.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
