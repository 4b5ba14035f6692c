// Package worker runs background jobs — transcription, audio extraction,
// TTS synthesis, waveform computation, frame caching, export — behind one
// event contract: Progress events followed by exactly one terminal event
// (Finished, Failed, or Cancelled), delivered in emission order.
//
// Workers never touch the project; results are plain values the main thread
// applies through commands.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fastmoviemaker/fmm/internal/ffmpegproc"
)

// EventKind discriminates worker events.
type EventKind int

const (
	// Progress reports (Current, Total) units, optionally with a message.
	Progress EventKind = iota
	// Finished carries the job result. Terminal.
	Finished
	// Failed carries the job error. Terminal.
	Failed
	// Cancelled reports a cooperative cancellation. Terminal; cancellation
	// is not an error in user terms.
	Cancelled
)

func (k EventKind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one notification from a worker.
type Event struct {
	Kind    EventKind
	Current int64
	Total   int64
	Message string
	Result  any
	Err     error
}

// Terminal reports whether the event ends the job.
func (e Event) Terminal() bool { return e.Kind != Progress }

// mailboxDepth bounds the per-worker event queue. The main thread drains
// continuously; the bound only protects against a stuck consumer.
const mailboxDepth = 256

// Handle controls a running job and exposes its event stream.
type Handle struct {
	name   string
	events chan Event

	cancelFn  context.CancelFunc
	cancelled atomic.Bool

	mu       sync.Mutex
	terminal *Event
	done     chan struct{}
}

// Events returns the job's event channel. Closed after the terminal event.
func (h *Handle) Events() <-chan Event { return h.events }

// Name identifies the job for logging and UI.
func (h *Handle) Name() string { return h.name }

// Cancel requests cooperative cancellation. Idempotent and race-free: a
// worker that finishes before observing the flag still reports Finished.
func (h *Handle) Cancel() {
	if h.cancelled.CompareAndSwap(false, true) {
		h.cancelFn()
	}
}

// Await drains events until the terminal one and returns it. Progress
// events seen along the way are forwarded to onProgress when non-nil.
func (h *Handle) Await(onProgress func(Event)) Event {
	for ev := range h.events {
		if ev.Terminal() {
			return ev
		}
		if onProgress != nil {
			onProgress(ev)
		}
	}
	// Channel closed: the terminal event was already consumed elsewhere.
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminal != nil {
		return *h.terminal
	}
	return Event{Kind: Failed, Err: errors.New("worker ended without a terminal event")}
}

// Done is closed once the terminal event has been emitted.
func (h *Handle) Done() <-chan struct{} { return h.done }

// emitter is handed to job bodies for progress reporting.
type emitter struct {
	h *Handle
}

func (e emitter) progress(current, total int64, message string) {
	e.h.events <- Event{Kind: Progress, Current: current, Total: total, Message: message}
}

// jobFunc is a worker body: compute, report progress, return a result.
// Cancellation arrives through the context; bodies poll it at safe points.
type jobFunc func(ctx context.Context, emit func(current, total int64, message string)) (any, error)

// start launches fn on its own goroutine under the worker contract.
func start(name string, logger *zap.SugaredLogger, fn jobFunc) *Handle {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		name:     name,
		events:   make(chan Event, mailboxDepth),
		cancelFn: cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(h.events)
		defer close(h.done)
		defer cancel()

		result, err := fn(ctx, emitter{h}.progress)

		var terminal Event
		switch {
		case err == nil:
			// A worker that crossed the finish line reports Finished even if
			// a cancel raced in late.
			terminal = Event{Kind: Finished, Result: result}
		case isCancel(err):
			terminal = Event{Kind: Cancelled}
			logger.Infow("worker cancelled", "worker", name)
		default:
			terminal = Event{Kind: Failed, Err: err}
			logger.Errorw("worker failed", "worker", name, "error", err)
		}

		h.mu.Lock()
		h.terminal = &terminal
		h.mu.Unlock()
		h.events <- terminal
	}()

	return h
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ffmpegproc.ErrCancelled)
}
