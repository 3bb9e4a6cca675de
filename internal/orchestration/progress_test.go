package orchestration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, ch <-chan ProgressEvent, n int) []ProgressEvent {
	t.Helper()
	var events []ProgressEvent
	for i := 0; i < n; i++ {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	return events
}

func TestProgressBroker_PublishToSubscriber(t *testing.T) {
	broker := NewProgressBroker()
	events, cancel := broker.Subscribe("job-1")
	defer cancel()

	broker.Publish("job-1", PhaseModelRequest, "asking the model")
	broker.Publish("job-1", PhaseRender, "")

	got := collectEvents(t, events, 2)
	require.Len(t, got, 2)
	assert.Equal(t, PhaseModelRequest, got[0].Phase)
	assert.Equal(t, "asking the model", got[0].Message)
	assert.Equal(t, "job-1", got[0].JobID)
	assert.Equal(t, PhaseRender, got[1].Phase)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestProgressBroker_JobIsolation(t *testing.T) {
	broker := NewProgressBroker()
	eventsA, cancelA := broker.Subscribe("job-a")
	defer cancelA()
	eventsB, cancelB := broker.Subscribe("job-b")
	defer cancelB()

	broker.Publish("job-a", PhaseCompile, "")

	got := collectEvents(t, eventsA, 1)
	require.Len(t, got, 1)

	select {
	case ev := <-eventsB:
		t.Fatalf("subscriber of job-b received event for job-a: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressBroker_TerminalPhaseClosesChannel(t *testing.T) {
	tests := []struct {
		name  string
		phase string
	}{
		{"completed", PhaseCompleted},
		{"failed", PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := NewProgressBroker()
			events, cancel := broker.Subscribe("job-1")
			defer cancel()

			broker.Publish("job-1", tt.phase, "done")

			got := collectEvents(t, events, 1)
			require.Len(t, got, 1)
			assert.Equal(t, tt.phase, got[0].Phase)

			select {
			case _, ok := <-events:
				assert.False(t, ok, "channel should be closed after terminal phase")
			case <-time.After(time.Second):
				t.Fatal("channel was not closed after terminal phase")
			}
		})
	}
}

func TestProgressBroker_CancelStopsDelivery(t *testing.T) {
	broker := NewProgressBroker()
	events, cancel := broker.Subscribe("job-1")
	cancel()

	// Publishing after cancel must not panic or block.
	broker.Publish("job-1", PhaseRender, "")

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after cancel")
}

func TestProgressBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewProgressBroker()
	_, cancel := broker.Subscribe("job-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		// More events than the channel buffer holds; nobody is reading.
		for i := 0; i < 64; i++ {
			broker.Publish("job-1", PhaseRender, "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
