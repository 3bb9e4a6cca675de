package orchestration

import (
	"sync"
	"time"
)

// Generation round phases published to progress subscribers.
const (
	PhaseModelRequest  = "model_request"
	PhaseModelResponse = "model_response"
	PhaseCompile       = "compile"
	PhaseRender        = "render"
	PhasePersisted     = "persisted"
	PhaseCompleted     = "completed"
	PhaseFailed        = "failed"
)

// ProgressEvent is one step of a generation round, streamed to WebSocket
// clients watching the round.
type ProgressEvent struct {
	JobID     string    `json:"job_id"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressBroker fans generation progress out to per-job subscribers. A round
// takes tens of seconds (model call plus remote render), so the API returns a
// job ID immediately and clients follow along here.
type ProgressBroker struct {
	mu   sync.Mutex
	subs map[string][]chan ProgressEvent
}

// NewProgressBroker creates an empty broker.
func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[string][]chan ProgressEvent)}
}

// Subscribe returns a channel of events for jobID and a cancel function. The
// channel closes after a terminal phase (completed or failed) or on cancel.
func (b *ProgressBroker) Subscribe(jobID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)

	b.mu.Lock()
	b.subs[jobID] = append(b.subs[jobID], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		chans := b.subs[jobID]
		for i, c := range chans {
			if c == ch {
				b.subs[jobID] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
		if len(b.subs[jobID]) == 0 {
			delete(b.subs, jobID)
		}
	}
	return ch, cancel
}

// Publish sends an event to every subscriber of jobID. A slow subscriber
// drops events instead of blocking the round. Terminal phases close and
// remove all subscriptions for the job.
func (b *ProgressBroker) Publish(jobID, phase, message string) {
	ev := ProgressEvent{
		JobID:     jobID,
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[jobID] {
		select {
		case ch <- ev:
		default:
		}
	}

	if phase == PhaseCompleted || phase == PhaseFailed {
		for _, ch := range b.subs[jobID] {
			close(ch)
		}
		delete(b.subs, jobID)
	}
}
