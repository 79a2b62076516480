package booking

import (
	"fmt"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

// CheckTransition enforces the reservation lifecycle:
//
//	pending    -> confirmed            (no guard)
//	pending    -> cancelled            (start time not passed)
//	confirmed  -> cancelled            (start time not passed)
//	confirmed  -> in_progress          (now >= start)
//	confirmed  -> no_show              (now >= start)
//	in_progress -> completed           (now >= end)
//	in_progress -> no_show             (now >= start)
//
// Terminal statuses admit no transition. Anything else is rejected with
// INVALID_STATE_TRANSITION.
func CheckTransition(from, to model.Status, now, start, end time.Time) error {
	if from.Terminal() {
		return ruleErr(CodeInvalidStateTransition,
			fmt.Sprintf("reservation is %s and cannot change state", from))
	}

	switch {
	case from == model.StatusPending && to == model.StatusConfirmed:
		return nil

	case (from == model.StatusPending || from == model.StatusConfirmed) && to == model.StatusCancelled:
		if !now.Before(start) {
			return ruleErr(CodeInvalidStateTransition,
				"reservation can no longer be cancelled once its start time has passed")
		}
		return nil

	case from == model.StatusConfirmed && to == model.StatusInProgress:
		if now.Before(start) {
			return ruleErr(CodeInvalidStateTransition,
				"reservation cannot start before its start time")
		}
		return nil

	case from == model.StatusInProgress && to == model.StatusCompleted:
		if now.Before(end) {
			return ruleErr(CodeInvalidStateTransition,
				"reservation cannot complete before its end time")
		}
		return nil

	case (from == model.StatusConfirmed || from == model.StatusInProgress) && to == model.StatusNoShow:
		if now.Before(start) {
			return ruleErr(CodeInvalidStateTransition,
				"reservation cannot be marked no-show before its start time")
		}
		return nil
	}

	return ruleErr(CodeInvalidStateTransition,
		fmt.Sprintf("transition %s -> %s is not allowed", from, to))
}
