// Package booking holds the pure calendar arithmetic behind the reservation
// engine: closed-interval overlap checks and month bucketing for cache keys.
package booking

import "time"

// Overlaps reports whether the closed date intervals [aFrom, aTo] and
// [bFrom, bTo] share at least one day. A booking ending on day D and another
// starting on day D conflict; that boundary rule is deliberate and callers
// rely on it. Inverted ranges are not rejected, the formula is evaluated
// as-is.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return !aFrom.After(bTo) && !aTo.Before(bFrom)
}

// Range is a closed calendar interval.
type Range struct {
	From time.Time `json:"from_date"`
	To   time.Time `json:"to_date"`
}

// Overlaps reports whether r and other share at least one day.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.From, r.To, other.From, other.To)
}

// DateOnly strips the time-of-day component; bookings are day-granular.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Month identifies a calendar month bucket.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the bucket containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthsSpanned lists every month bucket touched by [from, to] inclusive.
// An inverted range yields only the starting month so invalidation never
// walks backwards forever.
func MonthsSpanned(from, to time.Time) []Month {
	current := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)

	months := []Month{MonthOf(current)}
	for current.Before(end) {
		current = current.AddDate(0, 1, 0)
		months = append(months, MonthOf(current))
	}
	return months
}
