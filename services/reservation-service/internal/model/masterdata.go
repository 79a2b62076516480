package model

import "time"

// Local read models of admin-owned master data. Version is the monotonic
// per-entity counter carried on sync events; the consumer discards any
// snapshot whose version is not newer than the stored one.

type Category struct {
	ID      string
	Name    string
	Active  bool
	Version int64
}

type Service struct {
	ID              string
	CategoryID      string
	Name            string
	DurationMinutes int
	Price           string
	Available       bool
	Version         int64
}

type Stylist struct {
	ID      string
	Name    string
	Active  bool
	Version int64
}

// DaySchedule is one weekday of a stylist's weekly template including the
// optional fixed break, minutes from midnight. The whole week is replaced
// as a unit when a schedule event arrives.
type DaySchedule struct {
	StylistID        string
	Weekday          int // 0 = Sunday
	IsWorking        bool
	StartMinute      int
	EndMinute        int
	HasBreak         bool
	BreakStartMinute int
	BreakEndMinute   int
	Version          int64
}

// Blockout is an absolute range during which the stylist is wholly
// unavailable. Invariant: Start before or equal to End.
type Blockout struct {
	ID        string
	StylistID string
	Start     time.Time
	End       time.Time
	Version   int64
}
