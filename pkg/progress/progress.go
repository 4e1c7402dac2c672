// Package progress delivers ordered progress events from one running job to
// one observer.
package progress

import (
	"sync"
)

const (
	// StepComplete labels the terminal success event
	StepComplete = "Complete"
	// StepError labels the terminal failure event
	StepError = "Error"
)

// Event is a single progress record
type Event struct {
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Terminal reports whether no further events follow this one
func (e Event) Terminal() bool {
	return e.Error != "" || (e.Progress == 100 && e.Step == StepComplete)
}

// Channel carries events from a single producer to a single observer.
// Sends after the observer detaches, or after the terminal event, are dropped.
// A nil *Channel discards everything.
type Channel struct {
	events   chan Event
	detached chan struct{}
	detach   sync.Once

	mu     sync.Mutex
	closed bool
	last   int
}

// New creates a channel that queues up to buffer pending events
func New(buffer int) *Channel {
	return &Channel{
		events:   make(chan Event, buffer),
		detached: make(chan struct{}),
	}
}

// Events is the observer side. It is closed after the terminal event.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Detach marks the observer as gone
func (c *Channel) Detach() {
	if c == nil {
		return
	}
	c.detach.Do(func() { close(c.detached) })
}

// Step reports a non-terminal step. Progress never moves backwards.
func (c *Channel) Step(step string, progress int) {
	if c == nil {
		return
	}
	c.send(Event{Step: step, Progress: progress})
}

// Fail emits the terminal error event at the last reported progress
func (c *Channel) Fail(err error) {
	if c == nil {
		return
	}
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	c.send(Event{Step: StepError, Error: msg})
}

// Complete emits the terminal success event
func (c *Channel) Complete() {
	if c == nil {
		return
	}
	c.send(Event{Step: StepComplete, Progress: 100})
}

// Finish emits Complete for a nil error and Fail otherwise
func (c *Channel) Finish(err error) {
	if err != nil {
		c.Fail(err)
		return
	}
	c.Complete()
}

// Last returns the most recently reported progress value
func (c *Channel) Last() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Channel) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if ev.Error != "" || ev.Progress < c.last {
		ev.Progress = c.last
	}
	c.last = ev.Progress

	select {
	case c.events <- ev:
	case <-c.detached:
	}

	if ev.Terminal() {
		c.closed = true
		close(c.events)
	}
}
