package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEventOrdering(t *testing.T) {
	h := start("counter", nil, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		for i := int64(1); i <= 50; i++ {
			emit(i, 50, "")
		}
		return "done", nil
	})

	var last int64
	var events []Event
	for ev := range h.Events() {
		events = append(events, ev)
		if ev.Kind == Progress {
			if ev.Current <= last {
				t.Fatalf("progress out of order: %d after %d", ev.Current, last)
			}
			last = ev.Current
		}
	}

	if len(events) != 51 {
		t.Fatalf("expected 51 events, got %d", len(events))
	}
	final := events[len(events)-1]
	if final.Kind != Finished || final.Result != "done" {
		t.Errorf("terminal = %+v", final)
	}
}

func TestExactlyOneTerminalEvent(t *testing.T) {
	h := start("slow", nil, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		for i := 0; i < 100; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Millisecond):
			}
			emit(int64(i), 100, "")
		}
		return nil, nil
	})

	// Cancel is idempotent; hammering it concurrently must still yield
	// exactly one terminal event.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Cancel()
		}()
	}
	wg.Wait()

	terminals := 0
	var kind EventKind
	for ev := range h.Events() {
		if ev.Terminal() {
			terminals++
			kind = ev.Kind
		}
	}
	if terminals != 1 {
		t.Fatalf("saw %d terminal events, want exactly 1", terminals)
	}
	if kind != Cancelled {
		t.Errorf("terminal kind = %v, want Cancelled", kind)
	}
}

func TestFinishBeatsCancel(t *testing.T) {
	// A worker that completes before observing the flag reports Finished.
	h := start("fast", nil, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		return 42, nil
	})
	<-h.Done()
	h.Cancel()

	ev := h.Await(nil)
	if ev.Kind != Finished {
		t.Errorf("terminal = %v, want Finished", ev.Kind)
	}
	if ev.Result != 42 {
		t.Errorf("result = %v", ev.Result)
	}
}

func TestFailedCarriesError(t *testing.T) {
	boom := errors.New("boom")
	h := start("failing", nil, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		return nil, boom
	})
	ev := h.Await(nil)
	if ev.Kind != Failed || !errors.Is(ev.Err, boom) {
		t.Errorf("terminal = %+v", ev)
	}
}

func TestAwaitForwardsProgress(t *testing.T) {
	h := start("p", nil, func(ctx context.Context, emit func(int64, int64, string)) (any, error) {
		emit(1, 2, "halfway")
		emit(2, 2, "")
		return nil, nil
	})
	var seen []int64
	ev := h.Await(func(e Event) { seen = append(seen, e.Current) })
	if ev.Kind != Finished {
		t.Fatalf("terminal = %v", ev.Kind)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("progress seen = %v", seen)
	}
}
