package audit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/promptgate-ai/promptgate/internal/redact"
)

// Sink persists audit events somewhere durable.
type Sink interface {
	Write(event Event) error
	Close() error
}

// Emitter accepts events from the request path and hands them to sinks.
type Emitter interface {
	Emit(event Event)
	Close() error
}

// nopEmitter drops everything. Used when auditing is off.
type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

func (nopEmitter) Close() error { return nil }

// Nop returns an emitter that discards all events.
func Nop() Emitter { return nopEmitter{} }

const (
	defaultQueueSize       = 256
	defaultShutdownTimeout = 3 * time.Second
)

// AsyncEmitter buffers events on a channel and writes them from a single
// worker goroutine. Emit never blocks: when the queue is full the event is
// dropped and counted.
type AsyncEmitter struct {
	level Level
	sinks []Sink
	queue chan Event
	done  chan struct{}
	once  sync.Once

	enqueued atomic.Uint64
	dropped  atomic.Uint64
}

// NewAsyncEmitter starts the worker. The emitter owns the sinks and closes
// them on Close.
func NewAsyncEmitter(level Level, sinks []Sink) *AsyncEmitter {
	e := &AsyncEmitter{
		level: level,
		sinks: sinks,
		queue: make(chan Event, defaultQueueSize),
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit enqueues the event without blocking the caller.
func (e *AsyncEmitter) Emit(event Event) {
	if e.level == LevelOff {
		return
	}
	if e.level != LevelFull {
		event.PromptPreview = ""
		event.ResponsePreview = ""
	}
	select {
	case e.queue <- event:
		e.enqueued.Add(1)
	default:
		e.dropped.Add(1)
	}
}

// Stats reports how many events were enqueued and dropped so far.
func (e *AsyncEmitter) Stats() (enqueued, dropped uint64) {
	return e.enqueued.Load(), e.dropped.Load()
}

// Close drains the queue, then closes the sinks. Draining is bounded by a
// shutdown timeout so a wedged sink cannot hang process exit.
func (e *AsyncEmitter) Close() error {
	var firstErr error
	e.once.Do(func() {
		close(e.queue)
		select {
		case <-e.done:
		case <-time.After(defaultShutdownTimeout):
			redact.Logf("audit: shutdown timeout, %d events unflushed", len(e.queue))
		}
		for _, s := range e.sinks {
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func (e *AsyncEmitter) run() {
	defer close(e.done)
	for event := range e.queue {
		for _, s := range e.sinks {
			if err := s.Write(event); err != nil {
				redact.Logf("audit: sink write failed: %v", err)
			}
		}
	}
}
