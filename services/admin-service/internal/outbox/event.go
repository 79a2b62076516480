package outbox

import "encoding/json"

// Master-data feed topics. Topic name equals event type, one topic per
// entity kind, keyed by entity id so per-entity order is preserved.
const (
	TopicCategoryChanged = "catalog.category.changed.v1"
	TopicServiceChanged  = "catalog.service.changed.v1"
	TopicStylistChanged  = "staff.stylist.changed.v1"
	TopicScheduleChanged = "staff.schedule.changed.v1"
	TopicBlockoutChanged = "staff.blockout.changed.v1"
)

const (
	ActionCreated = "CREATED"
	ActionUpdated = "UPDATED"
	ActionDeleted = "DELETED"
)

type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
}

// Every feed event carries the full current snapshot of the entity plus
// its monotonic version, so consumers set state instead of applying diffs.

type CategorySnapshot struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	Version    int64  `json:"version"`
	Action     string `json:"action"`
}

type ServiceSnapshot struct {
	ServiceID       string `json:"service_id"`
	CategoryID      string `json:"category_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Available       bool   `json:"available"`
	Version         int64  `json:"version"`
	Action          string `json:"action"`
}

type StylistSnapshot struct {
	StylistID string `json:"stylist_id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Version   int64  `json:"version"`
	Action    string `json:"action"`
}

type ScheduleDaySnapshot struct {
	Weekday          int  `json:"weekday"`
	IsWorking        bool `json:"is_working"`
	StartMinute      int  `json:"start_minute"`
	EndMinute        int  `json:"end_minute"`
	HasBreak         bool `json:"has_break"`
	BreakStartMinute int  `json:"break_start_minute"`
	BreakEndMinute   int  `json:"break_end_minute"`
}

type ScheduleSnapshot struct {
	StylistID string                `json:"stylist_id"`
	Days      []ScheduleDaySnapshot `json:"days"`
	Version   int64                 `json:"version"`
	Action    string                `json:"action"`
}

type BlockoutSnapshot struct {
	BlockoutID string `json:"blockout_id"`
	StylistID  string `json:"stylist_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Version    int64  `json:"version"`
	Action     string `json:"action"`
}
