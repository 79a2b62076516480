package model

import "errors"

// ErrNotFound is returned by stores when a referenced entity does not exist.
var ErrNotFound = errors.New("entity not found")

// ErrSlotConflict is returned by the reservation store when a write would
// overlap another active reservation for the same stylist (the database
// exclusion constraint is the last line of defence under concurrency).
var ErrSlotConflict = errors.New("reservation slot conflict")
