package booking

import (
	"fmt"

	"github.com/hackgods/clinic-booking-gateway/internal/clock"
)

// MaxDurationMinutes bounds explicit duration overrides; nothing in the
// clinic's catalogue runs longer than four hours.
const MaxDurationMinutes = 240

const (
	ReasonWeekday    = "weekday"
	ReasonSurgeonDay = "surgeon-day"
)

// ResolveDuration resolves the effective appointment duration with precedence
// explicit override > service lookup > configured default. An explicit value
// must be positive, at most MaxDurationMinutes, and a member of the allowed
// set when one is configured.
func ResolveDuration(service string, explicitMinutes int, s Settings) (int, DurationSource, error) {
	if explicitMinutes != 0 {
		if explicitMinutes < 0 || explicitMinutes > MaxDurationMinutes {
			return 0, "", fmt.Errorf("%w: %d minutes", ErrInvalidDuration, explicitMinutes)
		}
		if s.AllowedDurations != nil && !s.AllowedDurations[explicitMinutes] {
			return 0, "", fmt.Errorf("%w: %d minutes is not an offered duration", ErrInvalidDuration, explicitMinutes)
		}
		return explicitMinutes, DurationFromExplicit, nil
	}
	if service != "" {
		if minutes, ok := s.ServiceDurations[service]; ok {
			return minutes, DurationFromService, nil
		}
	}
	return s.DefaultDuration, DurationFromDefault, nil
}

// CheckDayAvailability gates a date at day level. Both exclusions are final;
// the order only decides which reason is reported.
func CheckDayAvailability(d clock.Date, s Settings) (allowed bool, reason string) {
	if !clock.IsAllowedWeekday(d, s.AllowedWeekdays) {
		return false, ReasonWeekday
	}
	if clock.IsSurgeonDay(d) {
		return false, ReasonSurgeonDay
	}
	return true, ""
}

// WithinWorkingHours reports whether an appointment of durationMinutes
// starting at t fits inside the configured work window. The slot generator
// already guarantees this for listed slots; booking re-checks it because the
// caller supplies an arbitrary time.
func WithinWorkingHours(t clock.WallClock, durationMinutes int, s Settings) bool {
	start := t.MinuteOfDay()
	return start >= s.WorkStart.MinuteOfDay() && start+durationMinutes <= s.WorkEnd.MinuteOfDay()
}
