package booking

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not count: a booking ending
// exactly when another begins is permitted.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// HasConflict reports whether any busy interval overlaps the candidate.
// An empty busy set never conflicts.
func HasConflict(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(candidate, b) {
			return true
		}
	}
	return false
}
