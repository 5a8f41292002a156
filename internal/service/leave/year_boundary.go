package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
)

// ResolveYear returns the boundary of policy year `year`. The year starts at
// 00:00 on the first day of the policy's start month in the policy zone and
// ends one millisecond before the same instant twelve months later.
//
// With a non-January start month, year Y runs from that month of Y into Y+1.
func ResolveYear(year int, policy leave.Policy) leave.YearBoundary {
	start := time.Date(year, time.Month(policy.YearStartMonth+1), 1, 0, 0, 0, 0, policy.Loc())
	return leave.YearBoundary{
		Year:  year,
		Start: start,
		End:   start.AddDate(1, 0, 0).Add(-time.Millisecond),
	}
}

// YearFor returns the policy year containing t.
func YearFor(t time.Time, policy leave.Policy) int {
	local := t.In(policy.Loc())
	year := local.Year()
	if int(local.Month())-1 < policy.YearStartMonth {
		year--
	}
	return year
}

// Clamp returns the overlap of [start, end] with the boundary. ok is false
// when the range is inverted or misses the boundary entirely.
func Clamp(start, end time.Time, b leave.YearBoundary) (r leave.DateRange, ok bool) {
	if end.Before(start) {
		return leave.DateRange{}, false
	}

	if start.Before(b.Start) {
		start = b.Start
	}
	if end.After(b.End) {
		end = b.End
	}
	if end.Before(start) {
		return leave.DateRange{}, false
	}
	return leave.DateRange{Start: start, End: end}, true
}

// dateIn moves a calendar date to midnight of the same day in loc. Dates read
// from DATE columns arrive as UTC midnight; this keeps their day intact.
func dateIn(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
