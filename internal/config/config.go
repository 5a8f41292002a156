package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Timeclock  TimeclockConfig
	Sync       SyncConfig
	Attendance AttendanceConfig
	Leave      LeaveConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	SSEExpiration    string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// TimeclockConfig holds the external time-clock feed settings.
// An empty BaseURL disables sync triggers.
type TimeclockConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SyncConfig holds the throttle window and the heuristic waits applied after a trigger.
type SyncConfig struct {
	Interval             time.Duration
	RoutineWait          time.Duration
	FirstSyncWait        time.Duration
	StatusReportInterval time.Duration
}

// AttendanceConfig holds punch interpretation settings.
type AttendanceConfig struct {
	Timezone      string
	TZOffset      string
	Location      *time.Location
	MaxShift      time.Duration
	LiveGrace     time.Duration
	StreamTick    time.Duration
	StreamRefetch time.Duration
}

// LeaveConfig holds the annual leave policy.
type LeaveConfig struct {
	PaidAllocation decimal.Decimal
	SickAllocation decimal.Decimal
	YearStartMonth int
	PolicyFile     string
}

const (
	minTimeclockTimeout = 3 * time.Second
	maxTimeclockTimeout = 15 * time.Second
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables, applies the
// optional leave policy file and validates the result.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	dbMinConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: dbMaxConns,
		MinConns: dbMinConns,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.App.AllowedOrigins = append(config.App.AllowedOrigins, origin)
		}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		SSEExpiration:    getEnv("JWT_SSE_EXPIRATION_TIME", "5m"),
	}

	// Time-clock feed
	timeout, err := getEnvDuration("TIMECLOCK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	config.Timeclock = TimeclockConfig{
		BaseURL: strings.TrimRight(getEnv("TIMECLOCK_BASE_URL", ""), "/"),
		Timeout: timeout,
	}

	// Sync throttling
	if config.Sync, err = loadSync(); err != nil {
		return nil, err
	}

	// Attendance
	if config.Attendance, err = loadAttendance(); err != nil {
		return nil, err
	}

	// Leave policy
	if config.Leave, err = loadLeave(); err != nil {
		return nil, err
	}
	if config.Leave.PolicyFile != "" {
		if err := config.Leave.applyPolicyFile(config.Leave.PolicyFile); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadSync() (SyncConfig, error) {
	var (
		cfg SyncConfig
		err error
	)
	if cfg.Interval, err = getEnvDuration("SYNC_INTERVAL", 60*time.Second); err != nil {
		return cfg, err
	}
	if cfg.RoutineWait, err = getEnvDuration("SYNC_WAIT_ROUTINE", 300*time.Millisecond); err != nil {
		return cfg, err
	}
	if cfg.FirstSyncWait, err = getEnvDuration("SYNC_WAIT_FIRST", time.Second); err != nil {
		return cfg, err
	}
	if cfg.StatusReportInterval, err = getEnvDuration("SYNC_STATUS_REPORT_INTERVAL", 5*time.Minute); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadAttendance() (AttendanceConfig, error) {
	var (
		cfg AttendanceConfig
		err error
	)
	cfg.Timezone = getEnv("ATTENDANCE_TIMEZONE", "")
	cfg.TZOffset = getEnv("ATTENDANCE_TZ_OFFSET", "+05:30")
	if cfg.Location, err = ParseLocation(cfg.Timezone, cfg.TZOffset); err != nil {
		return cfg, err
	}
	if cfg.MaxShift, err = getEnvDuration("ATTENDANCE_MAX_SHIFT", 16*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.LiveGrace, err = getEnvDuration("ATTENDANCE_LIVE_GRACE", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.StreamTick, err = getEnvDuration("ATTENDANCE_STREAM_TICK", time.Second); err != nil {
		return cfg, err
	}
	if cfg.StreamRefetch, err = getEnvDuration("ATTENDANCE_STREAM_REFETCH", 30*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadLeave() (LeaveConfig, error) {
	var (
		cfg LeaveConfig
		err error
	)
	if cfg.PaidAllocation, err = getEnvDecimal("LEAVE_PAID_ALLOCATION", decimal.NewFromInt(12)); err != nil {
		return cfg, err
	}
	if cfg.SickAllocation, err = getEnvDecimal("LEAVE_SICK_ALLOCATION", decimal.NewFromInt(6)); err != nil {
		return cfg, err
	}
	if cfg.YearStartMonth, err = getEnvInt("LEAVE_YEAR_START_MONTH", 0); err != nil {
		return cfg, err
	}
	cfg.PolicyFile = getEnv("LEAVE_POLICY_FILE", "")
	return cfg, nil
}

// leavePolicyFile is the TOML layout of LEAVE_POLICY_FILE:
//
//	[leave]
//	paid_allocation = 12
//	sick_allocation = 6
//	year_start_month = 3
type leavePolicyFile struct {
	Leave struct {
		PaidAllocation decimal.Decimal `toml:"paid_allocation"`
		SickAllocation decimal.Decimal `toml:"sick_allocation"`
		YearStartMonth int             `toml:"year_start_month"`
	} `toml:"leave"`
}

// applyPolicyFile overlays the keys present in the TOML file on top of c.
func (c *LeaveConfig) applyPolicyFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("leave policy file does not exist: %s", path)
	}

	var file leavePolicyFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return fmt.Errorf("failed to parse leave policy file: %w", err)
	}

	if md.IsDefined("leave", "paid_allocation") {
		c.PaidAllocation = file.Leave.PaidAllocation
	}
	if md.IsDefined("leave", "sick_allocation") {
		c.SickAllocation = file.Leave.SickAllocation
	}
	if md.IsDefined("leave", "year_start_month") {
		c.YearStartMonth = file.Leave.YearStartMonth
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("Unknown keys in leave policy file", "path", path, "keys", undecoded)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("DB_MAX_CONNS must be at least DB_MIN_CONNS")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Timeclock.Timeout < minTimeclockTimeout || c.Timeclock.Timeout > maxTimeclockTimeout {
		return fmt.Errorf("TIMECLOCK_TIMEOUT must be between %s and %s", minTimeclockTimeout, maxTimeclockTimeout)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Sync.RoutineWait < 0 || c.Sync.FirstSyncWait < 0 {
		return fmt.Errorf("sync waits must not be negative")
	}
	if c.Sync.StatusReportInterval <= 0 {
		return fmt.Errorf("SYNC_STATUS_REPORT_INTERVAL must be positive")
	}
	if c.Attendance.MaxShift <= 0 {
		return fmt.Errorf("ATTENDANCE_MAX_SHIFT must be positive")
	}
	if c.Attendance.LiveGrace < 0 || c.Attendance.LiveGrace > c.Attendance.MaxShift {
		return fmt.Errorf("ATTENDANCE_LIVE_GRACE must be between 0 and ATTENDANCE_MAX_SHIFT")
	}
	if c.Attendance.StreamTick <= 0 || c.Attendance.StreamRefetch < c.Attendance.StreamTick {
		return fmt.Errorf("ATTENDANCE_STREAM_REFETCH must be at least ATTENDANCE_STREAM_TICK")
	}
	if c.Leave.PaidAllocation.IsNegative() || c.Leave.SickAllocation.IsNegative() {
		return fmt.Errorf("leave allocations must not be negative")
	}
	if c.Leave.YearStartMonth < 0 || c.Leave.YearStartMonth > 11 {
		return fmt.Errorf("LEAVE_YEAR_START_MONTH must be between 0 (January) and 11 (December)")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ParseLocation resolves a named IANA zone, or a fixed "+HH:MM" offset when
// name is empty.
func ParseLocation(name, offset string) (*time.Location, error) {
	if name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE %q: %w", name, err)
		}
		return loc, nil
	}

	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TZ_OFFSET %q: %w", offset, err)
	}
	_, seconds := t.Zone()
	return time.FixedZone("UTC"+offset, seconds), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
