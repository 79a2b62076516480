package masterdata

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// Applier turns feed messages into read-model writes. Malformed events are
// logged and skipped (a later resynchronization pass corrects divergence);
// store errors are returned so the consumer can surface them, and
// reprocessing is always safe because application is idempotent.
type Applier struct {
	store  Writer
	logger *slog.Logger
}

func NewApplier(store Writer, logger *slog.Logger) *Applier {
	return &Applier{store: store, logger: logger}
}

func (a *Applier) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case TopicCategoryChanged:
		return a.applyCategory(ctx, msg.Value)
	case TopicServiceChanged:
		return a.applyService(ctx, msg.Value)
	case TopicStylistChanged:
		return a.applyStylist(ctx, msg.Value)
	case TopicScheduleChanged:
		return a.applySchedule(ctx, msg.Value)
	case TopicBlockoutChanged:
		return a.applyBlockout(ctx, msg.Value)
	}
	a.logger.Warn("event on unexpected topic ignored", "topic", msg.Topic)
	return nil
}

func (a *Applier) applyCategory(ctx context.Context, payload []byte) error {
	var evt categoryEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.logger.Error("invalid category event skipped", "err", err)
		return nil
	}
	action, err := ParseAction(evt.Action)
	if err != nil || evt.CategoryID == "" {
		a.logger.Error("malformed category event skipped", "err", err, "category_id", evt.CategoryID)
		return nil
	}
	if action == ActionDeleted {
		return a.store.DeleteCategory(ctx, evt.CategoryID)
	}
	return a.store.UpsertCategory(ctx, model.Category{
		ID:      evt.CategoryID,
		Name:    evt.Name,
		Active:  evt.Active,
		Version: evt.Version,
	})
}

func (a *Applier) applyService(ctx context.Context, payload []byte) error {
	var evt serviceEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.logger.Error("invalid service event skipped", "err", err)
		return nil
	}
	action, err := ParseAction(evt.Action)
	if err != nil || evt.ServiceID == "" {
		a.logger.Error("malformed service event skipped", "err", err, "service_id", evt.ServiceID)
		return nil
	}
	if action == ActionDeleted {
		return a.store.DeleteService(ctx, evt.ServiceID)
	}
	if evt.DurationMinutes <= 0 {
		a.logger.Error("service event with non-positive duration skipped", "service_id", evt.ServiceID)
		return nil
	}
	return a.store.UpsertService(ctx, model.Service{
		ID:              evt.ServiceID,
		CategoryID:      evt.CategoryID,
		Name:            evt.Name,
		DurationMinutes: evt.DurationMinutes,
		Price:           evt.Price,
		Available:       evt.Available,
		Version:         evt.Version,
	})
}

func (a *Applier) applyStylist(ctx context.Context, payload []byte) error {
	var evt stylistEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.logger.Error("invalid stylist event skipped", "err", err)
		return nil
	}
	action, err := ParseAction(evt.Action)
	if err != nil || evt.StylistID == "" {
		a.logger.Error("malformed stylist event skipped", "err", err, "stylist_id", evt.StylistID)
		return nil
	}
	if action == ActionDeleted {
		return a.store.DeleteStylist(ctx, evt.StylistID)
	}
	return a.store.UpsertStylist(ctx, model.Stylist{
		ID:      evt.StylistID,
		Name:    evt.Name,
		Active:  evt.Active,
		Version: evt.Version,
	})
}

func (a *Applier) applySchedule(ctx context.Context, payload []byte) error {
	var evt scheduleEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.logger.Error("invalid schedule event skipped", "err", err)
		return nil
	}
	if _, err := ParseAction(evt.Action); err != nil || evt.StylistID == "" || len(evt.Days) == 0 {
		a.logger.Error("malformed schedule event skipped", "stylist_id", evt.StylistID)
		return nil
	}

	days := make([]model.DaySchedule, 0, len(evt.Days))
	for _, d := range evt.Days {
		if d.Weekday < 0 || d.Weekday > 6 {
			a.logger.Error("schedule event with invalid weekday skipped", "stylist_id", evt.StylistID, "weekday", d.Weekday)
			return nil
		}
		days = append(days, model.DaySchedule{
			StylistID:        evt.StylistID,
			Weekday:          d.Weekday,
			IsWorking:        d.IsWorking,
			StartMinute:      d.StartMinute,
			EndMinute:        d.EndMinute,
			HasBreak:         d.HasBreak,
			BreakStartMinute: d.BreakStartMinute,
			BreakEndMinute:   d.BreakEndMinute,
			Version:          evt.Version,
		})
	}
	return a.store.ReplaceWeek(ctx, evt.StylistID, days, evt.Version)
}

func (a *Applier) applyBlockout(ctx context.Context, payload []byte) error {
	var evt blockoutEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.logger.Error("invalid blockout event skipped", "err", err)
		return nil
	}
	action, err := ParseAction(evt.Action)
	if err != nil || evt.BlockoutID == "" {
		a.logger.Error("malformed blockout event skipped", "err", err, "blockout_id", evt.BlockoutID)
		return nil
	}
	if action == ActionDeleted {
		return a.store.DeleteBlockout(ctx, evt.BlockoutID)
	}

	start, err := time.Parse(time.RFC3339, evt.StartTime)
	if err != nil {
		a.logger.Error("blockout event with invalid start_time skipped", "err", err, "blockout_id", evt.BlockoutID)
		return nil
	}
	end, err := time.Parse(time.RFC3339, evt.EndTime)
	if err != nil {
		a.logger.Error("blockout event with invalid end_time skipped", "err", err, "blockout_id", evt.BlockoutID)
		return nil
	}
	if end.Before(start) {
		a.logger.Error("blockout event with inverted range skipped", "blockout_id", evt.BlockoutID)
		return nil
	}
	return a.store.UpsertBlockout(ctx, model.Blockout{
		ID:        evt.BlockoutID,
		StylistID: evt.StylistID,
		Start:     start,
		End:       end,
		Version:   evt.Version,
	})
}
