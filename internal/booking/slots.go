package booking

import "github.com/hackgods/clinic-booking-gateway/internal/clock"

// GenerateSlots produces the ordered candidate start times for a work day.
// The latest admissible start is workEnd - duration, inclusive; when the
// duration does not fit the window at all the result is empty, which is a
// valid outcome rather than an error. Same inputs always yield the same
// sequence.
func GenerateSlots(workStart, workEnd clock.WallClock, stepMinutes, durationMinutes int) []clock.WallClock {
	if stepMinutes <= 0 || durationMinutes <= 0 {
		return nil
	}

	latestStart := workEnd.MinuteOfDay() - durationMinutes
	var slots []clock.WallClock
	for t := workStart.MinuteOfDay(); t <= latestStart; t += stepMinutes {
		slots = append(slots, clock.WallClock{Hour: t / 60, Minute: t % 60})
	}
	return slots
}
