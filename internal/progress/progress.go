package progress

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is a single progress record. Serialized as one JSON object per line
// on stdout so a host process can tail the stream.
type Event struct {
	Type      string  `json:"type"`
	Stage     string  `json:"stage"`
	Progress  int     `json:"progress"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// Emitter writes newline-delimited progress events. Emission is
// fire-and-forget: write errors are swallowed so a closed pipe never takes
// the pipeline down.
type Emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewEmitter builds an emitter targeting w. A nil writer yields an emitter
// that discards every event.
func NewEmitter(w io.Writer) *Emitter {
	if w == nil {
		w = io.Discard
	}
	return &Emitter{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

// WithClock overrides the timestamp source (used in tests).
func (e *Emitter) WithClock(now func() time.Time) *Emitter {
	if now != nil {
		e.now = now
	}
	return e
}

// Emit publishes one event. Progress is clamped to [0, 100].
func (e *Emitter) Emit(stage string, percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	event := Event{
		Type:      "progress",
		Stage:     stage,
		Progress:  percent,
		Message:   message,
		Timestamp: float64(e.now().UnixNano()) / 1e9,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(event)
}
