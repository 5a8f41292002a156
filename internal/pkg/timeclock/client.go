// Package timeclock triggers reconciliation on the external biometric
// time-clock feed.
package timeclock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned when the feed answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("timeclock feed returned status %s", e.Status)
}

// Dispatch is one in-flight trigger. Callers may wait on it with a deadline or
// ignore it entirely.
type Dispatch struct {
	ID         string
	Date       string
	EmployeeID string

	done chan struct{}
	once sync.Once
	err  error
}

func newDispatch(date, employeeID string) *Dispatch {
	return &Dispatch{
		ID:         uuid.NewString(),
		Date:       date,
		EmployeeID: employeeID,
		done:       make(chan struct{}),
	}
}

// Finished returns a dispatch that has already completed with err.
func Finished(err error) *Dispatch {
	d := newDispatch("", "")
	d.finish(err)
	return d
}

func (d *Dispatch) finish(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Done is closed once the request has finished.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Err returns the outcome. It is nil until Done is closed.
func (d *Dispatch) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until the dispatch finishes or ctx is done. Giving up on the wait
// does not cancel the request.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client issues fire-and-forget sync triggers.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. A nil logger uses slog.Default.
func NewClient(cfg config.TimeclockConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.With("component", "timeclock"),
	}
}

// Enabled reports whether a feed URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Trigger asks the feed to reconcile date, optionally for one employee only.
// The request runs in the background, detached from ctx cancellation and
// bounded by the client timeout. Its outcome is only logged.
func (c *Client) Trigger(ctx context.Context, date, employeeID string) *Dispatch {
	if !c.Enabled() {
		return Finished(nil)
	}

	d := newDispatch(date, employeeID)
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)

	go func() {
		defer cancel()
		start := time.Now()
		err := c.do(reqCtx, date, employeeID)
		d.finish(err)

		attrs := []any{
			"dispatch_id", d.ID,
			"date", date,
			"employee_id", employeeID,
			"duration", time.Since(start),
		}
		if err != nil {
			c.logger.Warn("Timeclock sync trigger failed", append(attrs, "error", err)...)
			return
		}
		c.logger.Info("Timeclock sync trigger completed", attrs...)
	}()

	return d
}

func (c *Client) do(ctx context.Context, date, employeeID string) error {
	target, err := c.buildURL(date, employeeID)
	if err != nil {
		return fmt.Errorf("build timeclock url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build timeclock request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call timeclock feed: %w", err)
	}
	defer resp.Body.Close()

	// Body is ignored; drain it so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// buildURL adds the sync parameters to the base URL, keeping any query it
// already carries.
func (c *Client) buildURL(date, employeeID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("date", date)
	if employeeID != "" {
		q.Set("employee_id", employeeID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
