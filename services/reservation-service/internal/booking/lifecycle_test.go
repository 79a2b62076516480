package booking

import (
	"testing"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

func TestCheckTransition(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	before := start.Add(-time.Hour)
	during := start.Add(10 * time.Minute)
	after := end.Add(time.Minute)

	cases := []struct {
		name string
		from model.Status
		to   model.Status
		now  time.Time
		ok   bool
	}{
		{"confirm pending", model.StatusPending, model.StatusConfirmed, before, true},
		{"cancel pending before start", model.StatusPending, model.StatusCancelled, before, true},
		{"cancel confirmed before start", model.StatusConfirmed, model.StatusCancelled, before, true},
		{"cancel after start rejected", model.StatusConfirmed, model.StatusCancelled, during, false},
		{"start confirmed at start", model.StatusConfirmed, model.StatusInProgress, during, true},
		{"start confirmed early rejected", model.StatusConfirmed, model.StatusInProgress, before, false},
		{"complete in progress after end", model.StatusInProgress, model.StatusCompleted, after, true},
		{"complete in progress early rejected", model.StatusInProgress, model.StatusCompleted, during, false},
		{"no-show confirmed after start", model.StatusConfirmed, model.StatusNoShow, during, true},
		{"no-show in progress after start", model.StatusInProgress, model.StatusNoShow, during, true},
		{"no-show before start rejected", model.StatusConfirmed, model.StatusNoShow, before, false},
		{"pending cannot start", model.StatusPending, model.StatusInProgress, during, false},
		{"pending cannot complete", model.StatusPending, model.StatusCompleted, after, false},
		{"completed is terminal", model.StatusCompleted, model.StatusCancelled, before, false},
		{"cancelled is terminal", model.StatusCancelled, model.StatusConfirmed, before, false},
		{"no-show is terminal", model.StatusNoShow, model.StatusCompleted, after, false},
	}

	for _, tc := range cases {
		err := CheckTransition(tc.from, tc.to, tc.now, start, end)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected rejection: %v", tc.name, err)
		}
		if !tc.ok {
			re, isRule := AsRuleError(err)
			if !isRule || re.Code != CodeInvalidStateTransition {
				t.Fatalf("%s: expected INVALID_STATE_TRANSITION, got %v", tc.name, err)
			}
		}
	}
}
