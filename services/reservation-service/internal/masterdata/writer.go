package masterdata

import (
	"context"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

// Writer persists master-data snapshots into the local read model. Upserts
// must be idempotent and version-gated: a snapshot whose version is not
// newer than the stored one is silently discarded, which makes replay and
// out-of-order delivery safe.
type Writer interface {
	UpsertCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, id string) error

	UpsertService(ctx context.Context, s model.Service) error
	DeleteService(ctx context.Context, id string) error

	UpsertStylist(ctx context.Context, s model.Stylist) error
	DeleteStylist(ctx context.Context, id string) error

	// ReplaceWeek swaps the stylist's entire weekly template (including
	// fixed breaks) for the snapshot, set-the-whole-week semantics.
	ReplaceWeek(ctx context.Context, stylistID string, days []model.DaySchedule, version int64) error

	UpsertBlockout(ctx context.Context, b model.Blockout) error
	DeleteBlockout(ctx context.Context, id string) error
}
