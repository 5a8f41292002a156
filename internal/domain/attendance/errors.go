package attendance

import "errors"

// Attendance domain errors
var (
	ErrPunchRecordNotFound = errors.New("punch record not found")
	ErrUnauthorized        = errors.New("unauthorized to access this attendance record")
	ErrEmployeeIDRequired  = errors.New("employee id is required")
)
