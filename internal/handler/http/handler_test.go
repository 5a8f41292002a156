package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const handlerTestToday = "2025-03-10"

type fakeAttendanceService struct {
	mu        sync.Mutex
	liveReqs  []attendance.LiveAttendanceRequest
	dailyReqs []attendance.DailyAttendanceRequest
	fetches   int
	cleared   bool
	record    *attendance.PunchRecord
}

func (f *fakeAttendanceService) GetLiveAttendance(ctx context.Context, req attendance.LiveAttendanceRequest) (attendance.LiveAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LiveAttendanceResponse{}, err
	}
	f.mu.Lock()
	f.liveReqs = append(f.liveReqs, req)
	f.mu.Unlock()

	date := req.Date
	if date == "" {
		date = handlerTestToday
	}
	return attendance.LiveAttendanceResponse{EmployeeID: req.EmployeeID, Date: date, Found: true, SyncTriggered: true}, nil
}

func (f *fakeAttendanceService) GetDailyAttendance(ctx context.Context, req attendance.DailyAttendanceRequest) (attendance.DailyAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}
	f.mu.Lock()
	f.dailyReqs = append(f.dailyReqs, req)
	f.mu.Unlock()

	return attendance.DailyAttendanceResponse{
		Date:    handlerTestToday,
		Summary: attendance.DailySummary{Total: 1, Present: 1},
		Records: []attendance.LiveAttendanceResponse{
			{EmployeeID: "EMP-1", Status: attendance.StatusPresent, Punches: []string{"09:00", "17:00"}},
		},
	}, nil
}

func (f *fakeAttendanceService) FetchPunchRecord(ctx context.Context, employeeID, date string) (*attendance.PunchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.record, nil
}

func (f *fakeAttendanceService) Interpret(employeeID, date string, record *attendance.PunchRecord) attendance.LiveAttendanceResponse {
	resp := attendance.LiveAttendanceResponse{EmployeeID: employeeID, Date: date, Punches: []string{}}
	if record != nil {
		resp.Found = true
		resp.Punches = record.Punches
		resp.PunchCount = len(record.Punches)
	}
	return resp
}

func (f *fakeAttendanceService) Today() string { return handlerTestToday }

func (f *fakeAttendanceService) SyncStatus(ctx context.Context) attendance.SyncStatusResponse {
	return attendance.SyncStatusResponse{IntervalSeconds: 60, FeedEnabled: true, Entries: []attendance.SyncStatusEntry{}}
}

func (f *fakeAttendanceService) ClearSyncCache(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	return nil
}

func (f *fakeAttendanceService) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeAttendanceService) SetRecord(r *attendance.PunchRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record = r
}

type fakeLeaveService struct {
	reqs []leave.BalanceRequest
}

func (f *fakeLeaveService) GetBalance(ctx context.Context, req leave.BalanceRequest) (leave.BalanceResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.BalanceResponse{}, err
	}
	f.reqs = append(f.reqs, req)
	return leave.BalanceResponse{EmployeeID: req.EmployeeID, Year: req.Year}, nil
}

func (f *fakeLeaveService) GetPolicy(ctx context.Context) leave.PolicyResponse {
	return leave.PolicyResponse{PaidAllocation: 12, SickAllocation: 6, YearStartMonth: 3}
}

type handlerFixture struct {
	router     http.Handler
	jwt        jwt.Service
	hub        *sse.Hub
	attendance *fakeAttendanceService
	leave      *fakeLeaveService
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	jwtService, err := jwt.NewJWTService(config.JWTConfig{
		Secret:           "test-secret-key-for-jwt",
		AccessExpiration: "1h",
		SSEExpiration:    "5m",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &handlerFixture{
		jwt:        jwtService,
		hub:        sse.NewHub(),
		attendance: &fakeAttendanceService{},
		leave:      &fakeLeaveService{},
	}
	f.router = NewRouter(
		jwtService,
		NewAttendanceHandler(f.attendance, jwtService, f.hub, StreamConfig{Tick: time.Hour, Refetch: time.Hour}, logger),
		NewLeaveHandler(f.leave),
		RouterOptions{Logger: logger},
	)
	return f
}

func (f *handlerFixture) token(t *testing.T, employeeID string, role user.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("user-"+string(role), employeeID, role)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestAttendanceHandler_GetLive(t *testing.T) {
	f := newHandlerFixture(t)
	employee := f.token(t, "EMP-1", user.RoleEmployee)
	manager := f.token(t, "EMP-9", user.RoleManager)
	owner := f.token(t, "", user.RoleOwner)

	t.Run("own attendance", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live?force=true&first_sync=1", employee)
		require.Equal(t, http.StatusOK, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		var live attendance.LiveAttendanceResponse
		require.NoError(t, json.Unmarshal(env.Data, &live))
		assert.Equal(t, "EMP-1", live.EmployeeID)

		last := f.attendance.liveReqs[len(f.attendance.liveReqs)-1]
		assert.Equal(t, attendance.LiveAttendanceRequest{EmployeeID: "EMP-1", FirstSync: true}, last, "employees cannot force a sync")
	})

	t.Run("force is ignored without sync permission", func(t *testing.T) {
		before := len(f.attendance.liveReqs)
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/attendance/live?force=true", employee).Code)
		}
		require.Len(t, f.attendance.liveReqs, before+3)
		for _, req := range f.attendance.liveReqs[before:] {
			assert.False(t, req.Force)
		}
	})

	t.Run("manager may force", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live?force=1", manager)
		require.Equal(t, http.StatusOK, rec.Code)
		last := f.attendance.liveReqs[len(f.attendance.liveReqs)-1]
		assert.Equal(t, attendance.LiveAttendanceRequest{EmployeeID: "EMP-9", Force: true}, last)
	})

	t.Run("employee cannot view others", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live?employee_id=EMP-2", employee)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manager views others", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live?employee_id=EMP-2&date=2025-03-09", manager)
		require.Equal(t, http.StatusOK, rec.Code)
		last := f.attendance.liveReqs[len(f.attendance.liveReqs)-1]
		assert.Equal(t, "EMP-2", last.EmployeeID)
		assert.Equal(t, "2025-03-09", last.Date)
	})

	t.Run("account without employee", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live", owner)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid date", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live?date=10-03-2025", employee)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Contains(t, env.Error.Details, "date")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/live", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAttendanceHandler_ManagerRoutes(t *testing.T) {
	f := newHandlerFixture(t)
	employee := f.token(t, "EMP-1", user.RoleEmployee)
	manager := f.token(t, "EMP-9", user.RoleManager)

	for _, target := range []string{
		"/api/v1/attendance/daily",
		"/api/v1/attendance/daily/export",
		"/api/v1/attendance/sync/status",
	} {
		assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, target, employee).Code, target)
	}
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/api/v1/attendance/sync/cache", employee).Code)

	t.Run("daily", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/daily?date=2025-03-10&force=true", manager)
		require.Equal(t, http.StatusOK, rec.Code)

		var daily attendance.DailyAttendanceResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &daily))
		assert.Equal(t, 1, daily.Summary.Present)
		assert.Equal(t, attendance.DailyAttendanceRequest{Date: "2025-03-10", Force: true}, f.attendance.dailyReqs[0])
	})

	t.Run("export", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/daily/export?date=2025-03-10&force=true", manager)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, spreadsheet.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="attendance-2025-03-10.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.False(t, f.attendance.dailyReqs[len(f.attendance.dailyReqs)-1].Force, "exports never force a sync")

		wb, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows(spreadsheet.SheetAttendance)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("sync status", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/sync/status", manager)
		require.Equal(t, http.StatusOK, rec.Code)

		var status attendance.SyncStatusResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &status))
		assert.Equal(t, float64(60), status.IntervalSeconds)
	})

	t.Run("clear cache", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/api/v1/attendance/sync/cache", manager)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.attendance.cleared)
	})
}

func TestLeaveHandler_GetBalance(t *testing.T) {
	f := newHandlerFixture(t)
	employee := f.token(t, "EMP-1", user.RoleEmployee)
	manager := f.token(t, "EMP-9", user.RoleManager)

	rec := f.do(t, http.MethodGet, "/api/v1/leave/balance?year=2025", employee)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, leave.BalanceRequest{EmployeeID: "EMP-1", Year: 2025}, f.leave.reqs[0])

	rec = f.do(t, http.MethodGet, "/api/v1/leave/balance", employee)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.leave.reqs[1].Year)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/v1/leave/balance?employee_id=EMP-2", employee).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/leave/balance?employee_id=EMP-2", manager).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/leave/balance?year=last", employee)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Details, "year")

	rec = f.do(t, http.MethodGet, "/api/v1/leave/balance?year=12", employee)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/leave/balance?year=-1", employee)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "year must be between 1900 and 9999", decodeEnvelope(t, rec).Error.Details["year"])
}

func TestLeaveHandler_GetPolicy(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/leave/policy", f.token(t, "EMP-1", user.RoleEmployee))
	require.Equal(t, http.StatusOK, rec.Code)

	var policy leave.PolicyResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &policy))
	assert.Equal(t, 3, policy.YearStartMonth)
}

func TestAttendanceHandler_StreamToken(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/attendance/live/stream/token", f.token(t, "EMP-1", user.RoleEmployee))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp attendance.StreamTokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, "EMP-1", resp.EmployeeID)
	assert.Equal(t, 300, resp.ExpiresIn)

	employeeID, err := f.jwt.ValidateSSEToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "EMP-1", employeeID)
}

type sseEvent struct {
	Name string
	Data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestAttendanceHandler_Stream(t *testing.T) {
	f := newHandlerFixture(t)
	f.attendance.SetRecord(&attendance.PunchRecord{EmployeeID: "EMP-1", Punches: []string{"09:00"}})

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/attendance/live/stream")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/attendance/live/stream?token=" + f.token(t, "EMP-1", user.RoleEmployee))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("snapshot then refetch on sync", func(t *testing.T) {
		token, _, err := f.jwt.GenerateSSEToken("user-1", "EMP-1")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/attendance/live/stream?token="+token, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		body := bufio.NewReader(resp.Body)
		assert.Equal(t, attendance.EventConnected, readEvent(t, body).Name)

		first := readEvent(t, body)
		assert.Equal(t, attendance.EventSnapshot, first.Name)
		assert.Contains(t, first.Data, `"employee_id":"EMP-1"`)
		assert.True(t, f.attendance.liveReqs[0].FirstSync)

		before := f.attendance.Fetches()
		f.attendance.SetRecord(&attendance.PunchRecord{EmployeeID: "EMP-1", Punches: []string{"09:00", "12:00"}})
		f.hub.Publish("EMP-1", sse.Event{EmployeeID: "EMP-1", Event: attendance.EventSynced})

		next := readEvent(t, body)
		assert.Equal(t, attendance.EventSnapshot, next.Name)
		assert.Contains(t, next.Data, `"punch_count":2`)
		assert.Greater(t, f.attendance.Fetches(), before)
	})
}
