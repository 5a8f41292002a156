package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/synclimit"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/timeclock"
)

// SyncTrigger fires reconciliation requests at the time-clock feed.
type SyncTrigger interface {
	Enabled() bool
	Trigger(ctx context.Context, date, employeeID string) *timeclock.Dispatch
}

// Config holds the tunables of the attendance service.
type Config struct {
	Ledger LedgerOptions

	// RoutineWait and FirstSyncWait are how long a request sleeps after firing
	// a trigger before reading the store. The upstream is assumed to have
	// finished by then; the read may still be stale.
	RoutineWait   time.Duration
	FirstSyncWait time.Duration
}

type AttendanceServiceImpl struct {
	attendance.PunchRecordRepository
	limiter *synclimit.Limiter
	feed    SyncTrigger
	hub     *sse.Hub
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger

	// wait is replaced in tests
	wait func(ctx context.Context, d time.Duration)
}

func NewAttendanceService(
	punchRepo attendance.PunchRecordRepository,
	limiter *synclimit.Limiter,
	feed SyncTrigger,
	hub *sse.Hub,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *AttendanceServiceImpl {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		PunchRecordRepository: punchRepo,
		limiter:               limiter,
		feed:                  feed,
		hub:                   hub,
		clock:                 clk,
		cfg:                   cfg,
		logger:                logger,
		wait:                  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Today implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Today() string {
	return s.clock.Now().In(s.cfg.Ledger.location()).Format(attendance.DateLayout)
}

func (s *AttendanceServiceImpl) resolveDate(date string) (string, time.Time, error) {
	if date == "" {
		date = s.Today()
	}
	d, err := time.Parse(attendance.DateLayout, date)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return date, d, nil
}

// maybeSync asks the limiter whether key may fire and, if so, triggers the
// feed and waits the heuristic delay. It reports whether a trigger was sent.
func (s *AttendanceServiceImpl) maybeSync(ctx context.Context, key synclimit.Key, force, firstSync bool) bool {
	if s.feed == nil || !s.feed.Enabled() {
		return false
	}
	if !s.limiter.ShouldTrigger(key, force) {
		s.logger.Debug("Sync trigger throttled", "key", key.String())
		return false
	}

	d := s.feed.Trigger(ctx, key.Date, key.EmployeeID)
	go s.notifyWhenSynced(d, key)

	wait := s.cfg.RoutineWait
	if firstSync {
		wait = s.cfg.FirstSyncWait
	}
	s.wait(ctx, wait)
	return true
}

func (s *AttendanceServiceImpl) notifyWhenSynced(d *timeclock.Dispatch, key synclimit.Key) {
	<-d.Done()
	if d.Err() != nil || s.hub == nil {
		return
	}

	event := sse.Event{
		Event: attendance.EventSynced,
		Data:  map[string]string{"date": key.Date, "employee_id": key.EmployeeID},
	}
	if key.IsGlobal() {
		s.hub.Broadcast(event)
		return
	}
	event.EmployeeID = key.EmployeeID
	s.hub.Publish(key.EmployeeID, event)
}

// GetLiveAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetLiveAttendance(ctx context.Context, req attendance.LiveAttendanceRequest) (attendance.LiveAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LiveAttendanceResponse{}, err
	}

	date, _, err := s.resolveDate(req.Date)
	if err != nil {
		return attendance.LiveAttendanceResponse{}, err
	}

	triggered := s.maybeSync(ctx, synclimit.EmployeeKey(date, req.EmployeeID), req.Force, req.FirstSync)

	record, err := s.FetchPunchRecord(ctx, req.EmployeeID, date)
	if err != nil {
		return attendance.LiveAttendanceResponse{}, err
	}

	resp := s.Interpret(req.EmployeeID, date, record)
	resp.SyncTriggered = triggered
	return resp, nil
}

// GetDailyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDailyAttendance(ctx context.Context, req attendance.DailyAttendanceRequest) (attendance.DailyAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}

	date, day, err := s.resolveDate(req.Date)
	if err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}

	triggered := s.maybeSync(ctx, synclimit.GlobalKey(date), req.Force, false)

	records, err := s.PunchRecordRepository.ListByDate(ctx, day)
	if err != nil {
		return attendance.DailyAttendanceResponse{}, fmt.Errorf("failed to list punch records: %w", err)
	}

	resp := attendance.DailyAttendanceResponse{
		Date:          date,
		SyncTriggered: triggered,
		Records:       make([]attendance.LiveAttendanceResponse, 0, len(records)),
	}
	for i := range records {
		live := s.Interpret(records[i].EmployeeID, date, &records[i])
		resp.Records = append(resp.Records, live)
		summarize(&resp.Summary, live)
	}

	return resp, nil
}

func summarize(sum *attendance.DailySummary, live attendance.LiveAttendanceResponse) {
	sum.Total++
	if live.IsOngoing {
		sum.Ongoing++
	}
	switch {
	case live.Status == attendance.StatusPresent:
		sum.Present++
	case live.Status == attendance.StatusHalfDay:
		sum.HalfDay++
	case strings.EqualFold(strings.TrimSpace(live.Status), attendance.StatusAbsent):
		sum.Absent++
	case live.Status == "":
		sum.Ungraded++
	}
}

// FetchPunchRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) FetchPunchRecord(ctx context.Context, employeeID, date string) (*attendance.PunchRecord, error) {
	if employeeID == "" {
		return nil, attendance.ErrEmployeeIDRequired
	}
	_, day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	record, err := s.PunchRecordRepository.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, attendance.ErrPunchRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get punch record: %w", err)
	}
	return &record, nil
}

// Interpret implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Interpret(employeeID, date string, record *attendance.PunchRecord) attendance.LiveAttendanceResponse {
	now := s.clock.Now()
	resp := attendance.LiveAttendanceResponse{
		EmployeeID:  employeeID,
		Date:        date,
		Punches:     []string{},
		TotalTime:   FormatDuration(0),
		WorkingTime: FormatDuration(0),
		BreakTime:   FormatDuration(0),
		ComputedAt:  now.In(s.cfg.Ledger.location()).Format(time.RFC3339),
	}
	if record == nil {
		return resp
	}

	resp.EmployeeName = record.EmployeeName
	resp.ShiftName = record.ShiftName
	resp.ShiftStart = record.ShiftStart
	resp.ShiftEnd = record.ShiftEnd
	resp.Status = record.Status
	if record.Punches != nil {
		resp.Punches = record.Punches
	}

	refDate, err := time.Parse(attendance.DateLayout, date)
	if err != nil {
		return resp
	}

	live := ComputeLiveAttendance(record.Punches, refDate, now, record.Status, s.cfg.Ledger)
	resp.Status = live.Status
	if !live.Found {
		return resp
	}

	first := live.FirstPunch.Format(time.RFC3339)
	last := live.LastPunch.Format(time.RFC3339)
	resp.Found = true
	resp.IsOngoing = live.IsOngoing
	resp.PunchCount = live.PunchCount
	resp.FirstPunch = &first
	resp.LastPunch = &last
	resp.TotalTime = FormatDuration(live.TotalTime)
	resp.WorkingTime = FormatDuration(live.WorkingTime)
	resp.BreakTime = FormatDuration(live.BreakTime)
	return resp
}

// SyncStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) SyncStatus(ctx context.Context) attendance.SyncStatusResponse {
	entries := s.limiter.Status()
	resp := attendance.SyncStatusResponse{
		IntervalSeconds: s.limiter.Interval().Seconds(),
		FeedEnabled:     s.feed != nil && s.feed.Enabled(),
		Entries:         make([]attendance.SyncStatusEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, attendance.SyncStatusEntry{
			Key:            e.Key,
			LastTrigger:    e.LastTrigger.Format(time.RFC3339),
			ElapsedSeconds: e.Elapsed.Seconds(),
			Throttled:      e.Throttled,
		})
	}
	return resp
}

// ClearSyncCache implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClearSyncCache(ctx context.Context) error {
	s.limiter.Clear()
	s.logger.Info("Sync throttle cache cleared")
	return nil
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
