package pipeline

import (
	"sync"
	"time"
)

type Stage string

const (
	StageIdle        Stage = "idle"
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
	StagePending     Stage = "pending_preview"
	StageSuccess     Stage = "success"
	StageError       Stage = "error"
)

// StatusEvent is a single progress update for a save run. Terminal events
// carry a user-facing message; Recoverable marks whether a retry is worth
// suggesting.
type StatusEvent struct {
	Stage       Stage     `json:"stage"`
	URL         string    `json:"url,omitempty"`
	Message     string    `json:"message,omitempty"`
	Recoverable bool      `json:"recoverable,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Hub fans status events out to subscribers and remembers the latest one so
// late joiners see the current state instead of silence.
type Hub struct {
	mu   sync.RWMutex
	last StatusEvent
	subs map[chan StatusEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		last: StatusEvent{Stage: StageIdle, Timestamp: time.Now()},
		subs: make(map[chan StatusEvent]struct{}),
	}
}

func (h *Hub) Publish(event StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = event
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop rather than block the pipeline.
		}
	}
}

func (h *Hub) Last() StatusEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Subscribe returns a buffered channel of future events plus an unsubscribe
// function. The current state is delivered first.
func (h *Hub) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	ch <- h.last
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}

	return ch, unsubscribe
}
