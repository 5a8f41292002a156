package leave

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LeaveType is the kind of a leave span.
type LeaveType string

const (
	LeaveTypePaid        LeaveType = "paid"
	LeaveTypeSickHalfDay LeaveType = "sick_half_day"
	LeaveTypeSickFullDay LeaveType = "sick_full_day"
	LeaveTypeOther       LeaveType = "other"
)

var halfDay = decimal.NewFromFloat(0.5)

// ParseLeaveType normalizes a stored leave type. Unknown values are Other.
func ParseLeaveType(s string) LeaveType {
	switch t := LeaveType(strings.ToLower(strings.TrimSpace(s))); t {
	case LeaveTypePaid, LeaveTypeSickHalfDay, LeaveTypeSickFullDay:
		return t
	default:
		return LeaveTypeOther
	}
}

// Weight is the entitlement consumed per working day.
func (t LeaveType) Weight() decimal.Decimal {
	if t == LeaveTypeSickHalfDay {
		return halfDay
	}
	return decimal.NewFromInt(1)
}

func (t LeaveType) IsSick() bool {
	return t == LeaveTypeSickHalfDay || t == LeaveTypeSickFullDay
}

// Approval states of the HR and manager gates.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// IsApproved reports whether an approval field reads "approved". Empty and
// unknown values are not approved.
func IsApproved(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), ApprovalApproved)
}

// Span is a leave request as stored by the leave-request subsystem.
// StartDate and EndDate are calendar dates, both inclusive.
type Span struct {
	ID              string
	EmployeeID      string
	Type            LeaveType
	StartDate       time.Time
	EndDate         time.Time
	HRApproval      string
	ManagerApproval string
	Reason          *string
	CreatedAt       time.Time
}

// IsApproved reports whether both HR and the manager approved the span.
func (s Span) IsApproved() bool {
	return IsApproved(s.HRApproval) && IsApproved(s.ManagerApproval)
}

// Policy is the annual leave policy. CarryForward is always false in the
// current deployment: every year starts from the full allocation.
type Policy struct {
	CarryForward   bool
	PaidAllocation decimal.Decimal
	SickAllocation decimal.Decimal
	YearStartMonth int // 0 = January
	Location       *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		CarryForward:   false,
		PaidAllocation: decimal.NewFromInt(12),
		SickAllocation: decimal.NewFromInt(6),
		YearStartMonth: 0,
		Location:       time.UTC,
	}
}

// Loc returns the policy zone, UTC when unset.
func (p Policy) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// YearBoundary is the instant range of one policy year.
// End is exactly one policy year minus one millisecond after Start.
type YearBoundary struct {
	Year  int
	Start time.Time
	End   time.Time
}

// DateRange is an inclusive range of instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Balance is the leave usage of one employee within one policy year.
type Balance struct {
	Year          int
	YearStart     time.Time
	YearEnd       time.Time
	AllocatedPaid decimal.Decimal
	AllocatedSick decimal.Decimal
	UsedPaid      decimal.Decimal
	UsedSick      decimal.Decimal
	UsedOther     decimal.Decimal
	RemainingPaid decimal.Decimal
	RemainingSick decimal.Decimal
	SpansCounted  int
}
