package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type LeaveHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetPolicy(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	_, employeeID, err := resolveEmployee(r, user.PermissionLeaveViewOwn, user.PermissionLeaveViewAll)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var year int
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			response.HandleError(w, validator.ValidationErrors{{
				Field:   "year",
				Message: "year must be a number",
			}})
			return
		}
	}

	balance, err := l.leaveService.GetBalance(r.Context(), leave.BalanceRequest{
		EmployeeID: employeeID,
		Year:       year,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}

// GetPolicy implements LeaveHandler.
func (l *LeaveHandlerImpl) GetPolicy(w http.ResponseWriter, r *http.Request) {
	response.Success(w, l.leaveService.GetPolicy(r.Context()))
}
