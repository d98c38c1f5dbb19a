package clock

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrBadDate = errors.New("date must be formatted as YYYY-MM-DD")
	ErrBadTime = errors.New("time must be formatted as HH:MM")
)

// Date is a calendar date with no time component. It is always interpreted
// in the clinic timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a strict 4-digit-year/2-digit-month/2-digit-day date.
// Impossible dates like 2026-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Weekday returns ISO weekday numbering, Monday=1 .. Sunday=7.
func (d Date) Weekday() int {
	wd := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// WallClock is an hour:minute pair in 24-hour form, no timezone.
type WallClock struct {
	Hour   int
	Minute int
}

// ParseWallClock parses strict HH:MM. The "15" layout field alone would also
// accept a one-digit hour, so the shape is checked first.
func ParseWallClock(s string) (WallClock, error) {
	if len(s) != 5 || s[2] != ':' {
		return WallClock{}, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return WallClock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

// MinuteOfDay returns minutes since midnight, for interval arithmetic on the grid.
func (w WallClock) MinuteOfDay() int {
	return w.Hour*60 + w.Minute
}

// At combines a date and a wall-clock time into an absolute instant using the
// timezone's offset for that specific local moment, so DST transitions are
// handled by the location database rather than a fixed offset.
func At(d Date, w WallClock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, w.Hour, w.Minute, 0, 0, loc)
}

// DayWindow returns the [midnight, midnight+24h) span of d in loc.
func DayWindow(d Date, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// IsAllowedWeekday reports whether d's ISO weekday is in the allowed set.
func IsAllowedWeekday(d Date, allowed map[int]bool) bool {
	return allowed[d.Weekday()]
}

// LastMondayOfMonth finds the last calendar day of d's month and walks
// backward to the most recent Monday.
func LastMondayOfMonth(d Date) Date {
	// Day 0 of the next month is the last day of this month.
	last := time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC)
	back := (int(last.Weekday()) - int(time.Monday) + 7) % 7
	monday := last.AddDate(0, 0, -back)
	return Date{Year: monday.Year(), Month: monday.Month(), Day: monday.Day()}
}

// IsSurgeonDay reports whether d is the last Monday of its month, which is
// blocked for bot-driven booking.
func IsSurgeonDay(d Date) bool {
	return d == LastMondayOfMonth(d)
}
