package attendance

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ========================================
// LIVE ATTENDANCE DTOs
// ========================================

type LiveAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD, defaults to today
	Force      bool   `json:"force"`
	FirstSync  bool   `json:"first_sync"`
}

func (r *LiveAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Date != "" {
		if _, valid := validator.IsValidDate(r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LiveAttendanceResponse struct {
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  *string  `json:"employee_name,omitempty"`
	Date          string   `json:"date"`
	Found         bool     `json:"found"`
	IsOngoing     bool     `json:"is_ongoing"`
	Punches       []string `json:"punches"`
	PunchCount    int      `json:"punch_count"`
	FirstPunch    *string  `json:"first_punch,omitempty"`
	LastPunch     *string  `json:"last_punch,omitempty"`
	TotalTime     string   `json:"total_time"`
	WorkingTime   string   `json:"working_time"`
	BreakTime     string   `json:"break_time"`
	Status        string   `json:"status"`
	ShiftName     *string  `json:"shift_name,omitempty"`
	ShiftStart    *string  `json:"shift_start,omitempty"`
	ShiftEnd      *string  `json:"shift_end,omitempty"`
	SyncTriggered bool     `json:"sync_triggered"`
	ComputedAt    string   `json:"computed_at"`
}

// ========================================
// DAILY ATTENDANCE DTOs
// ========================================

type DailyAttendanceRequest struct {
	Date  string `json:"date"` // YYYY-MM-DD, defaults to today
	Force bool   `json:"force"`
}

func (r *DailyAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != "" {
		if _, valid := validator.IsValidDate(r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DailySummary struct {
	Total    int `json:"total"`
	Present  int `json:"present"`
	HalfDay  int `json:"half_day"`
	Absent   int `json:"absent"`
	Ungraded int `json:"ungraded"`
	Ongoing  int `json:"ongoing"`
}

type DailyAttendanceResponse struct {
	Date          string                   `json:"date"`
	SyncTriggered bool                     `json:"sync_triggered"`
	Summary       DailySummary             `json:"summary"`
	Records       []LiveAttendanceResponse `json:"records"`
}

// ========================================
// SYNC THROTTLE DTOs
// ========================================

type SyncStatusEntry struct {
	Key            string  `json:"key"`
	LastTrigger    string  `json:"last_trigger"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Throttled      bool    `json:"throttled"`
}

type SyncStatusResponse struct {
	IntervalSeconds float64           `json:"interval_seconds"`
	FeedEnabled     bool              `json:"feed_enabled"`
	Entries         []SyncStatusEntry `json:"entries"`
}

// ========================================
// LIVE STREAM DTOs
// ========================================

type StreamTokenResponse struct {
	Token      string `json:"token"`
	ExpiresIn  int    `json:"expires_in"`
	EmployeeID string `json:"employee_id"`
}
