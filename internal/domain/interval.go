package domain

import "time"

// Interval is a half-open time window [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsEmpty returns true for zero-length or inverted windows
func (i Interval) IsEmpty() bool {
	return !i.End.After(i.Start)
}

// TotalDuration sums duration and post-service buffer over the ordered services
func TotalDuration(services []Service) time.Duration {
	total := 0
	for _, s := range services {
		total += s.DurationMinutes + s.BufferAfterMinutes
	}
	return time.Duration(total) * time.Minute
}

// EndFor returns the derived end of an appointment starting at start
func EndFor(start time.Time, services []Service) time.Time {
	return start.Add(TotalDuration(services))
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Zero-length windows never overlap anything, so back-to-back bookings
// sharing a boundary instant are allowed.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) || !bEnd.After(bStart) {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether any existing window overlaps the candidate
func HasConflict(candidateStart, candidateEnd time.Time, existing []Interval) bool {
	for _, e := range existing {
		if Overlaps(candidateStart, candidateEnd, e.Start, e.End) {
			return true
		}
	}
	return false
}

// DayStart returns midnight of t's calendar day in loc
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
