package attendance

import (
	"context"
)

// AttendanceService defines live attendance operations
type AttendanceService interface {
	// GetLiveAttendance maybe triggers a feed sync for the employee, then
	// interprets the stored punches at the current instant.
	GetLiveAttendance(ctx context.Context, req LiveAttendanceRequest) (LiveAttendanceResponse, error)

	// GetDailyAttendance does the same for every employee of a date (manager)
	GetDailyAttendance(ctx context.Context, req DailyAttendanceRequest) (DailyAttendanceResponse, error)

	// FetchPunchRecord reads the stored record without triggering a sync.
	// A missing record is returned as nil.
	FetchPunchRecord(ctx context.Context, employeeID, date string) (*PunchRecord, error)

	// Interpret recomputes a record at the current instant
	Interpret(employeeID, date string, record *PunchRecord) LiveAttendanceResponse

	// Today returns the current date in the attendance time zone
	Today() string

	SyncStatus(ctx context.Context) SyncStatusResponse
	ClearSyncCache(ctx context.Context) error
}
