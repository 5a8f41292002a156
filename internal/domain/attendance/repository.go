package attendance

import (
	"context"
	"time"
)

// PunchRecordRepository reads punch records written by the time-clock feed.
// The service never writes through it.
type PunchRecordRepository interface {
	// GetByEmployeeAndDate returns ErrPunchRecordNotFound when the feed has no row yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (PunchRecord, error)

	// ListByDate returns every employee's record for date, ordered by employee.
	ListByDate(ctx context.Context, date time.Time) ([]PunchRecord, error)
}
