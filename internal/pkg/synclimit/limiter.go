// Package synclimit throttles reconciliation requests sent to the external
// time-clock feed.
//
// The limiter is a best-effort deduplicator, not a mutex: it never holds a lock
// between reading the last trigger instant and recording the new one. Two
// requests for the same key arriving together may both be told to fire. The
// upstream refresh is idempotent, so the duplicate call is harmless.
//
// State is per process. With N instances the upstream sees up to N triggers
// per interval for the same key.
package synclimit

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

// DefaultInterval is the minimum spacing between triggers for one key.
const DefaultInterval = 60 * time.Second

// Key identifies a throttle bucket. An empty EmployeeID is the global key that
// covers every employee for Date.
type Key struct {
	Date       string
	EmployeeID string
}

// GlobalKey returns the key covering all employees for date.
func GlobalKey(date string) Key {
	return Key{Date: date}
}

// EmployeeKey returns the key scoped to one employee for date.
func EmployeeKey(date, employeeID string) Key {
	return Key{Date: date, EmployeeID: employeeID}
}

// IsGlobal reports whether the key covers all employees.
func (k Key) IsGlobal() bool {
	return k.EmployeeID == ""
}

func (k Key) String() string {
	if k.IsGlobal() {
		return k.Date
	}
	return k.Date + "|" + k.EmployeeID
}

// EntryStatus describes one tracked key.
type EntryStatus struct {
	Key         string
	LastTrigger time.Time
	Elapsed     time.Duration
	Throttled   bool
}

// Limiter decides whether a sync trigger should fire now.
type Limiter struct {
	store    Store
	clock    clock.Clock
	interval time.Duration
}

// NewLimiter creates a limiter over store. A non-positive interval falls back
// to DefaultInterval.
func NewLimiter(store Store, clk clock.Clock, interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Limiter{
		store:    store,
		clock:    clk,
		interval: interval,
	}
}

// ShouldTrigger reports whether the caller should fire a sync for key. When it
// returns true the current instant has been recorded for key. force skips the
// interval check but still records the trigger.
func (l *Limiter) ShouldTrigger(key Key, force bool) bool {
	now := l.clock.Now()
	k := key.String()

	last, ok := l.store.Get(k)
	if ok && !force && now.Sub(last) <= l.interval {
		return false
	}

	l.store.Set(k, now)
	return true
}

// Status returns every tracked key with the time elapsed since its last
// trigger, ordered by key.
func (l *Limiter) Status() []EntryStatus {
	now := l.clock.Now()
	snapshot := l.store.Snapshot()

	out := make([]EntryStatus, 0, len(snapshot))
	for k, at := range snapshot {
		elapsed := now.Sub(at)
		out = append(out, EntryStatus{
			Key:         k,
			LastTrigger: at,
			Elapsed:     elapsed,
			Throttled:   elapsed <= l.interval,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Clear forgets every key.
func (l *Limiter) Clear() {
	l.store.Clear()
}

// Interval returns the configured throttle window.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
