package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hackgods/clinic-booking-gateway/internal/clock"
	"github.com/hackgods/clinic-booking-gateway/internal/journal"
	"github.com/hackgods/clinic-booking-gateway/internal/observability/metrics"
	redisclient "github.com/hackgods/clinic-booking-gateway/internal/redis"
)

type Service struct {
	settings Settings
	provider CalendarProvider
	locker   redisclient.Locker
	journal  journal.Recorder
	metrics  *metrics.BookingMetrics
	now      func() time.Time
}

func NewService(settings Settings, provider CalendarProvider, locker redisclient.Locker, rec journal.Recorder, m *metrics.BookingMetrics) *Service {
	if rec == nil {
		rec = journal.Nop{}
	}
	return &Service{
		settings: settings,
		provider: provider,
		locker:   locker,
		journal:  rec,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Service) Settings() Settings {
	return s.settings
}

// ListFreeSlots answers "which start times are open on this date for this
// service". A day blocked by the weekday rule or the surgeon day is a normal
// response with Allowed=false, not an error.
func (s *Service) ListFreeSlots(ctx context.Context, q SlotQuery) (*FreeSlots, error) {
	duration, source, err := ResolveDuration(q.Service, q.ExplicitMinutes, s.settings)
	if err != nil {
		return nil, err
	}

	out := &FreeSlots{
		Date:            q.Date,
		Service:         q.Service,
		DurationMinutes: duration,
		DurationSource:  source,
		StepMinutes:     s.settings.StepMinutes,
		WorkStart:       s.settings.WorkStart,
		WorkEnd:         s.settings.WorkEnd,
	}

	allowed, reason := CheckDayAvailability(q.Date, s.settings)
	if !allowed {
		out.Reason = reason
		s.metrics.ObserveSlotQuery(false)
		return out, nil
	}
	out.Allowed = true

	candidates := GenerateSlots(s.settings.WorkStart, s.settings.WorkEnd, s.settings.StepMinutes, duration)

	dayStart, dayEnd := clock.DayWindow(q.Date, s.settings.Location)
	busy, err := s.queryBusy(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	out.Slots = make([]clock.WallClock, 0, len(candidates))
	for _, t := range candidates {
		start := clock.At(q.Date, t, s.settings.Location)
		candidate := Interval{Start: start, End: start.Add(time.Duration(duration) * time.Minute)}
		if !HasConflict(candidate, busy) {
			out.Slots = append(out.Slots, t)
		}
	}

	s.metrics.ObserveSlotQuery(true)
	return out, nil
}

// CreateBooking validates the request, re-reads busy state from the provider
// inside a per-calendar lock, and inserts the event only when the candidate
// interval is still free. Single pass, no retries across gates.
func (s *Service) CreateBooking(ctx context.Context, req Request) (*Confirmation, error) {
	if err := validateRequest(req); err != nil {
		s.finishAttempt(ctx, req, 0, journal.OutcomeRejected, err.Error(), "")
		return nil, err
	}

	duration, source, err := ResolveDuration(req.Service, req.ExplicitMinutes, s.settings)
	if err != nil {
		s.finishAttempt(ctx, req, 0, journal.OutcomeRejected, err.Error(), "")
		return nil, err
	}

	if allowed, reason := CheckDayAvailability(req.Date, s.settings); !allowed {
		err := fmt.Errorf("%w: %s", ErrDayNotAllowed, reason)
		s.finishAttempt(ctx, req, duration, journal.OutcomeRejected, reason, "")
		return nil, err
	}

	if !WithinWorkingHours(req.Time, duration, s.settings) {
		s.finishAttempt(ctx, req, duration, journal.OutcomeRejected, "outside working hours", "")
		return nil, ErrOutsideWorkingHours
	}

	start := clock.At(req.Date, req.Time, s.settings.Location)
	end := start.Add(time.Duration(duration) * time.Minute)

	if s.settings.RequireFutureStart && !start.After(s.now()) {
		s.finishAttempt(ctx, req, duration, journal.OutcomeRejected, "start not in the future", "")
		return nil, ErrPastStart
	}

	var handle *EventHandle

	lockErr := s.locker.WithCalendarLock(ctx, s.settings.CalendarID, func(lockCtx context.Context) error {
		// Fresh read inside the critical section: the recheck plus the lock
		// closes the window between two concurrent attempts for the same span.
		dayStart, dayEnd := clock.DayWindow(req.Date, s.settings.Location)
		busy, err := s.queryBusy(lockCtx, dayStart, dayEnd)
		if err != nil {
			return err
		}

		if HasConflict(Interval{Start: start, End: end}, busy) {
			return ErrSlotTaken
		}

		handle, err = s.insertEvent(lockCtx, req, start, end)
		return err
	})

	switch {
	case lockErr == nil:
	case errors.Is(lockErr, redisclient.ErrLockNotAcquired):
		s.finishAttempt(ctx, req, duration, journal.OutcomeConflict, "lock contention", "")
		return nil, ErrCalendarBusy
	case errors.Is(lockErr, ErrSlotTaken):
		s.finishAttempt(ctx, req, duration, journal.OutcomeConflict, "busy interval overlap", "")
		return nil, lockErr
	default:
		s.finishAttempt(ctx, req, duration, journal.OutcomeProviderError, lockErr.Error(), "")
		return nil, lockErr
	}

	s.finishAttempt(ctx, req, duration, journal.OutcomeCreated, "", handle.ID)

	return &Confirmation{
		EventID:         handle.ID,
		HTMLLink:        handle.HTMLLink,
		Start:           start,
		End:             end,
		DurationMinutes: duration,
		DurationSource:  source,
	}, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(req.Phone) == "" {
		return fmt.Errorf("%w: phone", ErrMissingField)
	}
	return nil
}

func (s *Service) queryBusy(ctx context.Context, from, to time.Time) ([]Interval, error) {
	started := time.Now()
	busy, err := s.provider.QueryBusy(ctx, s.settings.CalendarID, from, to)
	s.metrics.ObserveProviderCall("freebusy", time.Since(started), err)
	if err != nil {
		return nil, err
	}
	return busy, nil
}

func (s *Service) insertEvent(ctx context.Context, req Request, start, end time.Time) (*EventHandle, error) {
	summary := fmt.Sprintf("Booking: %s", req.Name)
	if req.Service != "" {
		summary = fmt.Sprintf("Booking: %s (%s)", req.Name, req.Service)
	}
	description := fmt.Sprintf("Phone: %s", req.Phone)

	started := time.Now()
	handle, err := s.provider.InsertEvent(ctx, s.settings.CalendarID, EventRequest{
		Summary:     summary,
		Description: description,
		Start:       start,
		End:         end,
	})
	s.metrics.ObserveProviderCall("insert", time.Since(started), err)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// finishAttempt records the terminal outcome. Journal failures are logged and
// swallowed so observability can never fail a booking.
func (s *Service) finishAttempt(ctx context.Context, req Request, duration int, outcome, detail, eventID string) {
	s.metrics.ObserveBooking(outcome)

	attempt := journal.Attempt{
		CalendarID:      s.settings.CalendarID,
		Name:            req.Name,
		Phone:           req.Phone,
		Service:         req.Service,
		Date:            req.Date.String(),
		Time:            req.Time.String(),
		DurationMinutes: duration,
		Outcome:         outcome,
		Detail:          detail,
		EventID:         eventID,
		CreatedAt:       s.now(),
	}

	if err := s.journal.Record(ctx, attempt); err != nil {
		log.Printf("failed to record booking attempt outcome=%s: %v", outcome, err)
	}
}
