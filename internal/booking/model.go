package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/clinic-booking-gateway/internal/clock"
)

var (
	ErrMissingField        = errors.New("required field is missing")
	ErrInvalidDuration     = errors.New("invalid appointment duration")
	ErrDayNotAllowed       = errors.New("day is not open for booking")
	ErrOutsideWorkingHours = errors.New("time is outside working hours")
	ErrPastStart           = errors.New("booking start must be in the future")
	ErrSlotTaken           = errors.New("requested time conflicts with an existing appointment")
	ErrCalendarBusy        = errors.New("calendar is currently being booked, please retry")
)

// Interval is a half-open time range [Start, End). It represents either a
// candidate slot or a busy period reported by the calendar provider.
type Interval struct {
	Start time.Time
	End   time.Time
}

// DurationSource records which precedence branch resolved the effective
// duration, for response metadata and logs.
type DurationSource string

const (
	DurationFromExplicit DurationSource = "explicit"
	DurationFromService  DurationSource = "service"
	DurationFromDefault  DurationSource = "default"
)

// Settings is the immutable clinic calendar configuration. It is built once
// at startup and injected; no component reads ambient state.
type Settings struct {
	Location         *time.Location
	CalendarID       string
	WorkStart        clock.WallClock
	WorkEnd          clock.WallClock
	StepMinutes      int
	ServiceDurations map[string]int // service name -> minutes
	DefaultDuration  int            // minutes
	AllowedDurations map[int]bool   // optional; nil means any value within bounds
	AllowedWeekdays  map[int]bool   // ISO weekday (Mon=1..Sun=7) -> allowed

	// RequireFutureStart rejects bookings whose start is not strictly after
	// "now" in the clinic timezone.
	RequireFutureStart bool
}

func (s Settings) Validate() error {
	if s.Location == nil {
		return errors.New("settings: timezone location is required")
	}
	if s.CalendarID == "" {
		return errors.New("settings: calendar id is required")
	}
	if s.WorkEnd.MinuteOfDay() <= s.WorkStart.MinuteOfDay() {
		return fmt.Errorf("settings: work window %s-%s is empty", s.WorkStart, s.WorkEnd)
	}
	if s.StepMinutes <= 0 {
		return fmt.Errorf("settings: step must be positive, got %d", s.StepMinutes)
	}
	if s.DefaultDuration <= 0 || s.DefaultDuration > MaxDurationMinutes {
		return fmt.Errorf("settings: default duration %d out of range", s.DefaultDuration)
	}
	if len(s.AllowedWeekdays) == 0 {
		return errors.New("settings: at least one allowed weekday is required")
	}
	for d := range s.AllowedWeekdays {
		if d < 1 || d > 7 {
			return fmt.Errorf("settings: weekday %d out of range 1..7", d)
		}
	}
	return nil
}

// SlotQuery is the validated input to ListFreeSlots.
type SlotQuery struct {
	Date            clock.Date
	Service         string // optional
	ExplicitMinutes int    // 0 means unset
}

// FreeSlots is the outcome of a slot listing. A disallowed day is a success
// with Allowed=false, not an error.
type FreeSlots struct {
	Date            clock.Date
	Allowed         bool
	Reason          string // weekday or surgeon-day when not allowed
	Service         string
	DurationMinutes int
	DurationSource  DurationSource
	StepMinutes     int
	WorkStart       clock.WallClock
	WorkEnd         clock.WallClock
	Slots           []clock.WallClock
}

// Request is the validated input to CreateBooking.
type Request struct {
	Name            string
	Phone           string
	Date            clock.Date
	Time            clock.WallClock
	Service         string // optional
	ExplicitMinutes int    // 0 means unset
}

// Confirmation is returned after the provider acknowledges the event insert.
type Confirmation struct {
	EventID         string
	HTMLLink        string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	DurationSource  DurationSource
}
