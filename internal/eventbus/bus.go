package eventbus

import (
	"sync"
	"time"
)

// Stage identifies a phase of an optimization run.
type Stage string

const (
	StageAssemble Stage = "assemble"
	StageSelect   Stage = "select"
	StageForecast Stage = "forecast"
	StageSolve    Stage = "solve"
	StagePublish  Stage = "publish"
)

// StageEvent is emitted when a pipeline stage finishes.
type StageEvent struct {
	RunID    string
	Stage    Stage
	Duration time.Duration
	Err      error
}

// Bus is a non-blocking fan-out bus for stage events. Subscribers with full
// buffers miss events rather than stalling the pipeline.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan StageEvent
	closed bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber with the given buffer size.
func (b *Bus) Subscribe(buffer int) <-chan StageEvent {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan StageEvent, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev StageEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
