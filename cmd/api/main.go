package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/synclimit"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/timeclock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-attendance-go/internal/service/leave"
	"github.com/go-chi/httplog/v3"
)

const shutdownTimeout = 15 * time.Second

func newLogger(cfg config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(
		cfg.DatabaseURL(),
		database.WithPoolSize(int32(cfg.Database.MaxConns), int32(cfg.Database.MinConns)),
	)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	punchRecordRepo := postgresql.NewPunchRecordRepository(db)
	leaveSpanRepo := postgresql.NewLeaveSpanRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	hub := sse.NewHub()
	limiter := synclimit.NewLimiter(synclimit.NewMemoryStore(), clk, cfg.Sync.Interval)
	feed := timeclock.NewClient(cfg.Timeclock, logger)
	if !feed.Enabled() {
		logger.Warn("TIMECLOCK_BASE_URL is empty, sync triggers are disabled")
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		punchRecordRepo,
		limiter,
		feed,
		hub,
		clk,
		attendanceService.Config{
			Ledger: attendanceService.LedgerOptions{
				Location:  cfg.Attendance.Location,
				MaxShift:  cfg.Attendance.MaxShift,
				LiveGrace: cfg.Attendance.LiveGrace,
			},
			RoutineWait:   cfg.Sync.RoutineWait,
			FirstSyncWait: cfg.Sync.FirstSyncWait,
		},
		logger,
	)

	leaveSvc, err := leaveService.NewLeaveService(leaveSpanRepo, leave.Policy{
		PaidAllocation: cfg.Leave.PaidAllocation,
		SickAllocation: cfg.Leave.SickAllocation,
		YearStartMonth: cfg.Leave.YearStartMonth,
		Location:       cfg.Attendance.Location,
	}, clk)
	if err != nil {
		return err
	}

	scheduler := cron.NewScheduler(logger)
	cron.NewAttendanceJobs(attendanceSvc, hub, cfg.Sync.StatusReportInterval, logger).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, JWTService, hub, appHTTP.StreamConfig{
		Tick:    cfg.Attendance.StreamTick,
		Refetch: cfg.Attendance.StreamRefetch,
	}, logger)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)

	router := appHTTP.NewRouter(JWTService, attendanceHandler, leaveHandler, appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         logger,
	})

	// Live streams only end when their request context is cancelled, so the
	// base context is cancelled as soon as shutdown begins.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
