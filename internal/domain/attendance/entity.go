package attendance

import (
	"time"
)

// DateLayout is the wire format of attendance dates.
const DateLayout = "2006-01-02"

// Recorded and derived attendance statuses.
const (
	StatusPresent = "Present"
	StatusHalfDay = "Half-day"
	StatusAbsent  = "Absent"
)

// Live stream event names.
const (
	EventSynced     = "attendance.synced"
	EventSnapshot   = "attendance"
	EventConnected  = "connected"
	EventPing       = "ping"
	EventStreamFail = "error"
)

// PunchRecord is one employee-day as reconciled by the time-clock feed.
// Punches hold local wall-clock times ("15:04" or "15:04:05") without a zone.
type PunchRecord struct {
	EmployeeID string
	Date       time.Time
	Punches    []string
	Status     string
	ShiftName  *string
	ShiftStart *string
	ShiftEnd   *string
	UpdatedAt  time.Time

	// DTO
	EmployeeName *string
}

// LiveAttendance is the interpretation of a punch list at a given instant.
type LiveAttendance struct {
	Found       bool
	IsOngoing   bool
	PunchCount  int
	FirstPunch  time.Time
	LastPunch   time.Time
	TotalTime   time.Duration
	WorkingTime time.Duration
	BreakTime   time.Duration
	Status      string
	ComputedAt  time.Time
}
