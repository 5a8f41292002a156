package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

type BalanceCalculator struct {
}

func NewBalanceCalculator() *BalanceCalculator {
	return &BalanceCalculator{}
}

// Calculate sums approved usage per leave type inside the boundary and derives
// the remaining entitlement. Only the part of a span that overlaps the
// boundary counts, measured in Mon-Fri days. Remaining is floored at zero.
// Allocation is the policy allocation for every year; nothing carries over.
func (c *BalanceCalculator) Calculate(spans []leave.Span, boundary leave.YearBoundary, policy leave.Policy) leave.Balance {
	loc := policy.Loc()
	balance := leave.Balance{
		Year:          boundary.Year,
		YearStart:     boundary.Start,
		YearEnd:       boundary.End,
		AllocatedPaid: policy.PaidAllocation,
		AllocatedSick: policy.SickAllocation,
		UsedPaid:      decimal.Zero,
		UsedSick:      decimal.Zero,
		UsedOther:     decimal.Zero,
	}

	for _, span := range spans {
		if !span.IsApproved() {
			continue
		}

		r, ok := Clamp(dateIn(span.StartDate, loc), dateIn(span.EndDate, loc), boundary)
		if !ok {
			continue
		}

		days := CountWorkingDays(r.Start, r.End)
		if days == 0 {
			continue
		}
		used := decimal.NewFromInt(int64(days)).Mul(span.Type.Weight())

		switch {
		case span.Type == leave.LeaveTypePaid:
			balance.UsedPaid = balance.UsedPaid.Add(used)
		case span.Type.IsSick():
			balance.UsedSick = balance.UsedSick.Add(used)
		default:
			balance.UsedOther = balance.UsedOther.Add(used)
		}
		balance.SpansCounted++
	}

	balance.RemainingPaid = remaining(policy.PaidAllocation, balance.UsedPaid)
	balance.RemainingSick = remaining(policy.SickAllocation, balance.UsedSick)
	return balance
}

func remaining(allocation, used decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, allocation.Sub(used))
}

// CountWorkingDays counts the calendar days from start to end inclusive that
// fall on Monday through Friday. Days are taken in start's location.
func CountWorkingDays(start, end time.Time) int {
	loc := start.Location()
	day := dateIn(start, loc)
	last := dateIn(end.In(loc), loc)

	count := 0
	for !day.After(last) {
		if isWorkday(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

func isWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
