package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	EmployeeID string
	Event      string
	Data       interface{}
}

// Hub fans events out to live attendance streams, keyed by employee.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for an employee and returns the event channel and cleanup function
func (h *Hub) Subscribe(employeeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of one employee
func (h *Hub) Publish(employeeID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[employeeID] {
		send(ch, event)
	}
}

// Broadcast sends an event to every subscriber. EmployeeID is set per recipient.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for employeeID, subs := range h.subscribers {
		e := event
		e.EmployeeID = employeeID
		for ch := range subs {
			send(ch, e)
		}
	}
}

// send never blocks; a full subscriber misses the event
func send(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
	}
}

// SubscriberCount returns the number of active subscribers for an employee
func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[employeeID])
}

// TotalSubscribers returns the total number of active subscribers
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// WriteEvent writes one event in text/event-stream framing with a JSON payload.
func WriteEvent(w io.Writer, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode sse payload: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
