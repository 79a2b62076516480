package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
	"github.com/salonworks/stylebook/services/reservation-service/internal/schedule"
)

type CreateCommand struct {
	StylistID   string
	ServiceID   string
	ClientID    string
	Day         time.Time
	StartMinute int
}

type RescheduleCommand struct {
	ReservationID string
	Day           time.Time
	StartMinute   int
}

type Config struct {
	// LockWait bounds how long a command waits for its stylist-day lock
	// before failing with ErrLockTimeout.
	LockWait time.Duration
	// ConflictRetries bounds how many times a create/reschedule re-runs its
	// validate-then-persist cycle after losing a race on the database
	// overlap constraint.
	ConflictRetries int
	// SlotStep is the granularity of suggested slot start times.
	SlotStep time.Duration
}

// Service executes reservation commands. Validation happens under a
// per-stylist-day lock so overlapping concurrent requests can never both
// commit; the store's overlap constraint backs the lock up across
// instances.
type Service struct {
	master       MasterDataStore
	reservations ReservationStore
	validator    *Validator
	locks        SlotLock
	logger       *slog.Logger
	now          func() time.Time

	lockWait        time.Duration
	conflictRetries int
	slotStep        time.Duration
}

func NewService(master MasterDataStore, reservations ReservationStore, locks SlotLock, logger *slog.Logger, cfg Config) *Service {
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	if cfg.ConflictRetries <= 0 {
		cfg.ConflictRetries = 3
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 15 * time.Minute
	}
	return &Service{
		master:          master,
		reservations:    reservations,
		validator:       NewValidator(master, reservations),
		locks:           locks,
		logger:          logger,
		now:             time.Now,
		lockWait:        cfg.LockWait,
		conflictRetries: cfg.ConflictRetries,
		slotStep:        cfg.SlotStep,
	}
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (model.Reservation, error) {
	day := schedule.Day(cmd.Day)

	release, err := s.acquire(ctx, cmd.StylistID, day)
	if err != nil {
		return model.Reservation{}, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		iv, err := s.validator.Validate(ctx, Candidate{
			StylistID:   cmd.StylistID,
			ServiceID:   cmd.ServiceID,
			Day:         day,
			StartMinute: cmd.StartMinute,
		})
		if err != nil {
			return model.Reservation{}, err
		}

		res := model.Reservation{
			StylistID: cmd.StylistID,
			ServiceID: cmd.ServiceID,
			ClientID:  cmd.ClientID,
			Day:       day,
			StartTime: iv.Start,
			EndTime:   iv.End,
			Status:    model.StatusPending,
		}
		id, err := s.reservations.Insert(ctx, &res)
		if err == nil {
			res.ID = id
			return res, nil
		}
		if !errors.Is(err, model.ErrSlotConflict) {
			return model.Reservation{}, err
		}
		if attempt >= s.conflictRetries {
			return model.Reservation{}, ruleErr(CodeSlotTaken, "another reservation occupies the requested time")
		}
		s.logger.Warn("reservation insert lost overlap race, revalidating",
			"stylist_id", cmd.StylistID, "attempt", attempt+1)
	}
}

// Reschedule moves a reservation to a new day/start. The move is
// all-or-nothing: a rejected candidate leaves the original reservation
// completely untouched, and a successful one changes only the interval,
// never the status. The reservation being moved is excluded from the
// conflict set so it cannot collide with its own current slot.
func (s *Service) Reschedule(ctx context.Context, cmd RescheduleCommand) (model.Reservation, error) {
	existing, err := s.reservations.Get(ctx, cmd.ReservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if existing.Status.Terminal() {
		return model.Reservation{}, ruleErr(CodeInvalidStateTransition,
			"a reservation in a terminal state cannot be rescheduled")
	}

	day := schedule.Day(cmd.Day)
	release, err := s.acquire(ctx, existing.StylistID, day)
	if err != nil {
		return model.Reservation{}, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		iv, err := s.validator.Validate(ctx, Candidate{
			StylistID:            existing.StylistID,
			ServiceID:            existing.ServiceID,
			Day:                  day,
			StartMinute:          cmd.StartMinute,
			ExcludeReservationID: existing.ID,
		})
		if err != nil {
			return model.Reservation{}, err
		}

		err = s.reservations.UpdateInterval(ctx, existing.ID, day, iv.Start, iv.End)
		if err == nil {
			existing.Day = day
			existing.StartTime = iv.Start
			existing.EndTime = iv.End
			return existing, nil
		}
		if !errors.Is(err, model.ErrSlotConflict) {
			return model.Reservation{}, err
		}
		if attempt >= s.conflictRetries {
			return model.Reservation{}, ruleErr(CodeSlotTaken, "another reservation occupies the requested time")
		}
	}
}

func (s *Service) ChangeStatus(ctx context.Context, id string, to model.Status) (model.Reservation, error) {
	res, err := s.reservations.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := CheckTransition(res.Status, to, s.now(), res.StartTime, res.EndTime); err != nil {
		return model.Reservation{}, err
	}
	if err := s.reservations.UpdateStatus(ctx, id, to); err != nil {
		return model.Reservation{}, err
	}
	res.Status = to
	return res, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (model.Reservation, error) {
	return s.ChangeStatus(ctx, id, model.StatusCancelled)
}

// FreeSlots lists bookable start times for a stylist/service/day, stepped
// through the resolved free intervals. Past start times are omitted.
func (s *Service) FreeSlots(ctx context.Context, stylistID, serviceID string, day time.Time) ([]schedule.Interval, error) {
	svc, err := s.master.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Available || svc.DurationMinutes <= 0 {
		return nil, ruleErr(CodeServiceUnavailable, "service is not available for booking")
	}

	day = schedule.Day(day)
	snap, err := s.validator.loadDaySnapshot(ctx, stylistID, day, "")
	if err != nil {
		return nil, err
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	starts := schedule.SlotStarts(schedule.FreeIntervals(day, snap), duration, s.slotStep, s.now())
	slots := make([]schedule.Interval, 0, len(starts))
	for _, t := range starts {
		slots = append(slots, schedule.Interval{Start: t, End: t.Add(duration)})
	}
	return slots, nil
}

func (s *Service) acquire(ctx context.Context, stylistID string, day time.Time) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	return s.locks.Acquire(lockCtx, stylistID+"|"+day.Format("2006-01-02"))
}
