package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

const (
	presentThreshold = 8 * time.Hour
	halfDayThreshold = 4 * time.Hour
)

// DefaultLocation is the fixed UTC+05:30 zone punch times are recorded in.
var DefaultLocation = time.FixedZone("UTC+05:30", 5*60*60+30*60)

// LedgerOptions tune how a punch list is interpreted.
type LedgerOptions struct {
	// Location is the zone the feed's wall-clock punch times belong to.
	Location *time.Location

	// MaxShift is the longest plausible shift. A closed day whose first punch
	// is older than this is never reported live.
	MaxShift time.Duration

	// LiveGrace keeps a day with an even punch count live for a short while
	// after the final punch-out. Setting it to MaxShift keeps a closed day live
	// for the whole shift ceiling.
	LiveGrace time.Duration
}

func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{
		Location:  DefaultLocation,
		MaxShift:  16 * time.Hour,
		LiveGrace: 5 * time.Minute,
	}
}

func (o LedgerOptions) location() *time.Location {
	if o.Location == nil {
		return DefaultLocation
	}
	return o.Location
}

// ParsePunch places a "15:04" or "15:04:05" wall-clock time on refDate's
// calendar day in loc.
func ParsePunch(refDate time.Time, punch string, loc *time.Location) (time.Time, error) {
	punch = strings.TrimSpace(punch)
	t, err := time.Parse("15:04", punch)
	if err != nil {
		t, err = time.Parse("15:04:05", punch)
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(refDate.Year(), refDate.Month(), refDate.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

// ParsePunches converts a punch list into sorted instants. Entries that do not
// parse are dropped.
func ParsePunches(punches []string, refDate time.Time, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(punches))
	for _, p := range punches {
		t, err := ParsePunch(refDate, p, loc)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ComputeLiveAttendance interprets the punches of one employee-day at now.
//
// Punches pair up positionally: (0,1), (2,3) and so on. An odd count leaves the
// last interval open; such a day is always ongoing and the open interval
// accrues working time up to now, though past MaxShift it no longer counts
// towards the derived status. A day with an even count is ongoing only
// while the last punch is within LiveGrace and the first punch is within
// MaxShift.
func ComputeLiveAttendance(punches []string, refDate, now time.Time, recordedStatus string, opts LedgerOptions) attendance.LiveAttendance {
	result := attendance.LiveAttendance{
		Status:     recordedStatus,
		ComputedAt: now,
	}

	times := ParsePunches(punches, refDate, opts.location())
	if len(times) == 0 {
		return result
	}

	first := times[0]
	last := times[len(times)-1]
	open := len(times)%2 == 1

	var working time.Duration
	for i := 0; i+1 < len(times); i += 2 {
		working += times[i+1].Sub(times[i])
	}

	sinceFirst := now.Sub(first)
	sinceLast := now.Sub(last)

	// graded feeds the status. An open segment older than MaxShift is treated
	// as a missed punch-out and does not count towards it.
	graded := working

	ongoing := open
	if open {
		accruing := max(0, sinceLast)
		working += accruing
		if accruing < opts.MaxShift {
			graded += accruing
		}
	} else {
		ongoing = sinceLast >= 0 && sinceLast < opts.LiveGrace && sinceFirst < opts.MaxShift
	}

	end := last
	if ongoing {
		end = now
	}
	total := max(0, end.Sub(first))

	result.Found = true
	result.IsOngoing = ongoing
	result.PunchCount = len(times)
	result.FirstPunch = first
	result.LastPunch = last
	result.TotalTime = total
	result.WorkingTime = working
	result.BreakTime = max(0, total-working)
	result.Status = DeriveStatus(recordedStatus, graded)
	return result
}

// DeriveStatus keeps a recorded status unless it is empty or Absent, in which
// case the working time decides. Below the half-day threshold the recorded
// value is returned unchanged.
func DeriveStatus(recorded string, working time.Duration) string {
	trimmed := strings.TrimSpace(recorded)
	if trimmed != "" && !strings.EqualFold(trimmed, attendance.StatusAbsent) {
		return recorded
	}

	switch {
	case working >= presentThreshold:
		return attendance.StatusPresent
	case working >= halfDayThreshold:
		return attendance.StatusHalfDay
	default:
		return recorded
	}
}

// FormatDuration renders d as HH:MM:SS, truncated to the second. Negative
// durations render as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
