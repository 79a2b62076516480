package storage

import (
	"context"
	"time"

	"github.com/salonworks/stylebook/services/admin-service/internal/outbox"
)

// EnqueueResync republishes the current snapshot of every entity through
// the outbox. Run once at startup: consumers apply snapshots with a
// version gate, so replaying everything is cheap and converges any
// replica that missed events while the feed was down.
func (r *Repository) EnqueueResync(ctx context.Context, now time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	count := 0

	// A single salon's catalog and roster stay small; one page covers it.
	const resyncLimit = 10000

	categories, err := r.ListCategories(ctx, resyncLimit)
	if err != nil {
		return 0, err
	}
	for _, c := range categories {
		if err := r.emit(ctx, tx, "category", c.ID, outbox.TopicCategoryChanged, categorySnapshot(c, outbox.ActionUpdated)); err != nil {
			return 0, err
		}
		count++
	}

	services, err := r.ListServices(ctx, resyncLimit)
	if err != nil {
		return 0, err
	}
	for _, s := range services {
		if err := r.emit(ctx, tx, "service", s.ID, outbox.TopicServiceChanged, serviceSnapshot(s, outbox.ActionUpdated)); err != nil {
			return 0, err
		}
		count++
	}

	stylists, err := r.ListStylists(ctx, resyncLimit)
	if err != nil {
		return 0, err
	}
	for _, s := range stylists {
		if err := r.emit(ctx, tx, "stylist", s.ID, outbox.TopicStylistChanged, stylistSnapshot(s, outbox.ActionUpdated)); err != nil {
			return 0, err
		}
		count++

		days, version, err := r.GetWeek(ctx, s.ID)
		if err != nil {
			return 0, err
		}
		if len(days) == 0 {
			continue
		}
		if err := r.emit(ctx, tx, "schedule", s.ID, outbox.TopicScheduleChanged, scheduleSnapshot(s.ID, days, version, outbox.ActionUpdated)); err != nil {
			return 0, err
		}
		count++
	}

	// Past blockouts can no longer affect availability; skip them.
	blockouts, err := r.ListAllBlockouts(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, b := range blockouts {
		if err := r.emit(ctx, tx, "blockout", b.ID, outbox.TopicBlockoutChanged, blockoutSnapshot(b, outbox.ActionUpdated)); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}
