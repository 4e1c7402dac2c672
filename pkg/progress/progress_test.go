package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch *Channel) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("channel was never closed")
		}
	}
}

func TestEventsArriveInOrderAndCloseOnComplete(t *testing.T) {
	ch := New(8)

	go func() {
		ch.Step("Checking FFmpeg", 5)
		ch.Step("Downloading video", 30)
		ch.Complete()
	}()

	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.Equal(t, "Checking FFmpeg", events[0].Step)
	assert.Equal(t, 30, events[1].Progress)
	assert.True(t, events[2].Terminal())
	assert.Equal(t, Event{Step: StepComplete, Progress: 100}, events[2])
}

func TestFailCarriesLastProgress(t *testing.T) {
	ch := New(8)

	ch.Step("Downloading video", 30)
	ch.Fail(errors.New("download failed"))

	events := collect(t, ch)
	require.Len(t, events, 2)
	last := events[1]
	assert.True(t, last.Terminal())
	assert.Equal(t, StepError, last.Step)
	assert.Equal(t, 30, last.Progress)
	assert.Equal(t, "download failed", last.Error)
}

func TestFailWithoutStepsReportsZero(t *testing.T) {
	ch := New(1)
	ch.Fail(errors.New("no tool"))

	events := collect(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Progress)
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	ch := New(8)
	ch.Step("a", 40)
	ch.Step("b", 10)
	ch.Complete()

	events := collect(t, ch)
	assert.Equal(t, 40, events[1].Progress)
}

func TestSendsAfterTerminalAreDropped(t *testing.T) {
	ch := New(8)
	ch.Complete()
	ch.Step("late", 50)
	ch.Fail(errors.New("late"))

	events := collect(t, ch)
	assert.Len(t, events, 1)
}

func TestDetachedObserverMakesSendsNoOps(t *testing.T) {
	ch := New(0)
	ch.Detach()

	done := make(chan struct{})
	go func() {
		ch.Step("Downloading video", 30)
		ch.Step("Generating thumbnail", 60)
		ch.Complete()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked after observer detached")
	}
	assert.Equal(t, 100, ch.Last())
}

func TestNilChannelDiscards(t *testing.T) {
	var ch *Channel
	assert.NotPanics(t, func() {
		ch.Step("x", 10)
		ch.Finish(nil)
		ch.Finish(errors.New("x"))
		ch.Detach()
	})
	assert.Equal(t, 0, ch.Last())
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"complete", Event{Step: StepComplete, Progress: 100}, true},
		{"error", Event{Step: StepError, Progress: 20, Error: "x"}, true},
		{"hundred without label", Event{Step: "Uploading", Progress: 100}, false},
		{"midway", Event{Step: "Downloading video", Progress: 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.Terminal())
		})
	}
}
