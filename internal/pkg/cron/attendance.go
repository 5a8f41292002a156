package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

// AttendanceJobs holds the periodic attendance jobs. They only observe; no job
// triggers a feed sync.
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	hub               *sse.Hub
	interval          time.Duration
	logger            *slog.Logger
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, hub *sse.Hub, interval time.Duration, logger *slog.Logger) *AttendanceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		hub:               hub,
		interval:          interval,
		logger:            logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("report_sync_status", j.interval, j.ReportSyncStatus)
}

// ReportSyncStatus logs the throttle table and the number of open live streams.
func (j *AttendanceJobs) ReportSyncStatus(ctx context.Context) error {
	status := j.attendanceService.SyncStatus(ctx)

	throttled := 0
	for _, e := range status.Entries {
		if e.Throttled {
			throttled++
		}
		j.logger.Debug("Sync throttle entry",
			"key", e.Key,
			"last_trigger", e.LastTrigger,
			"elapsed_seconds", e.ElapsedSeconds,
			"throttled", e.Throttled,
		)
	}

	streams := 0
	if j.hub != nil {
		streams = j.hub.TotalSubscribers()
	}

	j.logger.Info("Sync throttle status",
		"feed_enabled", status.FeedEnabled,
		"interval_seconds", status.IntervalSeconds,
		"keys", len(status.Entries),
		"throttled", throttled,
		"live_streams", streams,
	)
	return nil
}
