package leave

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type BalanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"` // 0 = current policy year
}

func (r *BalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.Year != 0 && (r.Year < 1900 || r.Year > 9999) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 1900 and 9999",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TypeBalance struct {
	Allocated float64 `json:"allocated"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

type BalanceResponse struct {
	EmployeeID   string      `json:"employee_id"`
	Year         int         `json:"year"`
	YearStart    string      `json:"year_start"`
	YearEnd      string      `json:"year_end"`
	CarryForward bool        `json:"carry_forward"`
	Paid         TypeBalance `json:"paid"`
	Sick         TypeBalance `json:"sick"`
	UsedOther    float64     `json:"used_other"`
	SpansCounted int         `json:"spans_counted"`
}

type PolicyResponse struct {
	CarryForward   bool    `json:"carry_forward"`
	PaidAllocation float64 `json:"paid_allocation"`
	SickAllocation float64 `json:"sick_allocation"`
	YearStartMonth int     `json:"year_start_month"`
	CurrentYear    int     `json:"current_year"`
	YearStart      string  `json:"year_start"`
	YearEnd        string  `json:"year_end"`
}
