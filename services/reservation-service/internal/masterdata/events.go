package masterdata

import "fmt"

// Topics of the master-data feed published by the admin service. Topic name
// equals event type, one topic per entity kind.
const (
	TopicCategoryChanged = "catalog.category.changed.v1"
	TopicServiceChanged  = "catalog.service.changed.v1"
	TopicStylistChanged  = "staff.stylist.changed.v1"
	TopicScheduleChanged = "staff.schedule.changed.v1"
	TopicBlockoutChanged = "staff.blockout.changed.v1"
)

// Action is the closed set of change kinds carried on feed events. The wire
// strings are decoded here, once, at the edge; everything downstream works
// with the typed value.
type Action string

const (
	ActionCreated Action = "CREATED"
	ActionUpdated Action = "UPDATED"
	ActionDeleted Action = "DELETED"
)

func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return Action(raw), nil
	}
	return "", fmt.Errorf("unknown action %q", raw)
}

// Wire payloads. Every event carries the full current snapshot of the
// entity's mutable fields plus its monotonic version, so applying an event
// is "set the snapshot", never "apply a diff".

type categoryEvent struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	Version    int64  `json:"version"`
	Action     string `json:"action"`
}

type serviceEvent struct {
	ServiceID       string `json:"service_id"`
	CategoryID      string `json:"category_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Available       bool   `json:"available"`
	Version         int64  `json:"version"`
	Action          string `json:"action"`
}

type stylistEvent struct {
	StylistID string `json:"stylist_id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Version   int64  `json:"version"`
	Action    string `json:"action"`
}

type scheduleDay struct {
	Weekday          int  `json:"weekday"`
	IsWorking        bool `json:"is_working"`
	StartMinute      int  `json:"start_minute"`
	EndMinute        int  `json:"end_minute"`
	HasBreak         bool `json:"has_break"`
	BreakStartMinute int  `json:"break_start_minute"`
	BreakEndMinute   int  `json:"break_end_minute"`
}

type scheduleEvent struct {
	StylistID string        `json:"stylist_id"`
	Days      []scheduleDay `json:"days"`
	Version   int64         `json:"version"`
	Action    string        `json:"action"`
}

type blockoutEvent struct {
	BlockoutID string `json:"blockout_id"`
	StylistID  string `json:"stylist_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Version    int64  `json:"version"`
	Action     string `json:"action"`
}
