package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type AttendanceHandler interface {
	GetLive(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
	GetDaily(w http.ResponseWriter, r *http.Request)
	ExportDaily(w http.ResponseWriter, r *http.Request)
	SyncStatus(w http.ResponseWriter, r *http.Request)
	ClearSyncCache(w http.ResponseWriter, r *http.Request)
}

// StreamConfig sets the live stream cadences. Tick recomputes the cached record
// against the clock; Refetch reads the store again.
type StreamConfig struct {
	Tick    time.Duration
	Refetch time.Duration
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	jwtService        jwt.Service
	hub               *sse.Hub
	stream            StreamConfig
	logger            *slog.Logger
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, jwtService jwt.Service, hub *sse.Hub, stream StreamConfig, logger *slog.Logger) AttendanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if stream.Tick <= 0 {
		stream.Tick = time.Second
	}
	if stream.Refetch <= 0 {
		stream.Refetch = 30 * time.Second
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		jwtService:        jwtService,
		hub:               hub,
		stream:            stream,
		logger:            logger,
	}
}

// resolveEmployee picks the employee a request is about and checks the caller
// may view it. Without employee_id the caller's own employee is used.
func resolveEmployee(r *http.Request, own, all user.Permission) (user.Principal, string, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return user.Principal{}, "", user.ErrInvalidToken
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		employeeID = principal.EmployeeID
	}
	if employeeID == "" {
		return principal, "", user.ErrEmployeeProfileRequired
	}

	if !principal.CanView(employeeID, own, all) {
		return principal, "", attendance.ErrUnauthorized
	}
	return principal, employeeID, nil
}

// GetLive implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetLive(w http.ResponseWriter, r *http.Request) {
	principal, employeeID, err := resolveEmployee(r, user.PermissionAttendanceViewOwn, user.PermissionAttendanceViewAll)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req := attendance.LiveAttendanceRequest{
		EmployeeID: employeeID,
		Date:       r.URL.Query().Get("date"),
		Force:      forceRequested(r, principal),
		FirstSync:  getBoolQueryParam(r, "first_sync", false),
	}

	resp, err := h.attendanceService.GetLiveAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// StreamToken issues a short-lived token for the live stream of one employee.
// EventSource cannot send an Authorization header, so the stream takes it as a
// query parameter.
func (h *attendanceHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	principal, employeeID, err := resolveEmployee(r, user.PermissionAttendanceViewOwn, user.PermissionAttendanceViewAll)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(principal.UserID, employeeID)
	if err != nil {
		h.logger.Error("Failed to generate SSE token", "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, attendance.StreamTokenResponse{
		Token:      token,
		ExpiresIn:  expiresIn,
		EmployeeID: employeeID,
	})
}

// Stream pushes live attendance for one employee over server-sent events.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	employeeID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	pinnedDate := r.URL.Query().Get("date")
	ctx := r.Context()

	// The initial snapshot goes through the limiter like a page load.
	first, err := h.attendanceService.GetLiveAttendance(ctx, attendance.LiveAttendanceRequest{
		EmployeeID: employeeID,
		Date:       pinnedDate,
		FirstSync:  true,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(employeeID)
	defer cleanup()

	emit := func(name string, data interface{}) bool {
		if err := sse.WriteEvent(w, name, data); err != nil {
			h.logger.Debug("Live stream write failed", "employee_id", employeeID, "error", err)
			return false
		}
		flusher.Flush()
		return true
	}

	if !emit(attendance.EventConnected, map[string]string{"status": "connected", "employee_id": employeeID}) {
		return
	}
	if !emit(attendance.EventSnapshot, first) {
		return
	}

	date := first.Date
	record, err := h.attendanceService.FetchPunchRecord(ctx, employeeID, date)
	if err != nil {
		h.logger.Warn("Live stream fetch failed", "employee_id", employeeID, "date", date, "error", err)
	}

	refetch := func() bool {
		if pinnedDate == "" {
			date = h.attendanceService.Today()
		}
		fresh, err := h.attendanceService.FetchPunchRecord(ctx, employeeID, date)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			h.logger.Warn("Live stream refetch failed", "employee_id", employeeID, "date", date, "error", err)
			return emit(attendance.EventStreamFail, map[string]string{"message": "failed to refresh punches"})
		}
		record = fresh
		return true
	}

	tick := time.NewTicker(h.stream.Tick)
	defer tick.Stop()
	refetchTicker := time.NewTicker(h.stream.Refetch)
	defer refetchTicker.Stop()
	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Event != attendance.EventSynced {
				continue
			}
			if !refetch() || !emit(attendance.EventSnapshot, h.attendanceService.Interpret(employeeID, date, record)) {
				return
			}

		case <-refetchTicker.C:
			if !refetch() {
				return
			}

		case <-tick.C:
			if !emit(attendance.EventSnapshot, h.attendanceService.Interpret(employeeID, date, record)) {
				return
			}

		case <-keepalive.C:
			if !emit(attendance.EventPing, map[string]int64{"timestamp": time.Now().Unix()}) {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// forceRequested honours ?force only for callers allowed to manage syncs.
// Everyone else goes through the throttle.
func forceRequested(r *http.Request, principal user.Principal) bool {
	return getBoolQueryParam(r, "force", false) && principal.Can(user.PermissionAttendanceSync)
}

func (h *attendanceHandlerImpl) daily(r *http.Request, force bool) (attendance.DailyAttendanceResponse, error) {
	return h.attendanceService.GetDailyAttendance(r.Context(), attendance.DailyAttendanceRequest{
		Date:  r.URL.Query().Get("date"),
		Force: force,
	})
}

// GetDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDaily(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())
	resp, err := h.daily(r, forceRequested(r, principal))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ExportDaily implements AttendanceHandler.
func (h *attendanceHandlerImpl) ExportDaily(w http.ResponseWriter, r *http.Request) {
	resp, err := h.daily(r, false)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteDailyAttendance(&buf, resp); err != nil {
		h.logger.Error("Failed to render attendance export", "date", resp.Date, "error", err)
		response.InternalServerError(w, "Failed to render export")
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spreadsheet.DailyAttendanceFilename(resp.Date)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// SyncStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) SyncStatus(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.attendanceService.SyncStatus(r.Context()))
}

// ClearSyncCache implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClearSyncCache(w http.ResponseWriter, r *http.Request) {
	if err := h.attendanceService.ClearSyncCache(r.Context()); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sync throttle cache cleared", nil)
}
