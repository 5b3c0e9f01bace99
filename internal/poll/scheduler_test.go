package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestScheduler(mock *clock.Mock, step Step) *Scheduler {
	return New(Config{
		Name:     "test",
		Interval: 15 * time.Second,
		Clock:    mock,
		Logger:   logging.NewDiscardLogger(),
	}, step)
}

func TestStartRunsImmediatelyThenEveryInterval(t *testing.T) {
	mock := clock.NewMock()
	var cycles int32
	s := newTestScheduler(mock, func(context.Context) { atomic.AddInt32(&cycles, 1) })

	s.Start(context.Background())
	if got := atomic.LoadInt32(&cycles); got != 1 {
		t.Fatalf("expected one synchronous cycle, got %d", got)
	}
	if !s.Pending() {
		t.Fatal("expected a pending timer after the first cycle")
	}

	mock.Add(14 * time.Second)
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&cycles); got != 1 {
		t.Fatalf("cycle ran early: %d", got)
	}

	mock.Add(time.Second)
	waitFor(t, "second cycle", func() bool { return atomic.LoadInt32(&cycles) == 2 })
	waitFor(t, "reschedule", s.Pending)

	mock.Add(15 * time.Second)
	waitFor(t, "third cycle", func() bool { return atomic.LoadInt32(&cycles) == 3 })
}

func TestPanickingStepStillReschedules(t *testing.T) {
	mock := clock.NewMock()
	var cycles int32
	s := newTestScheduler(mock, func(context.Context) {
		atomic.AddInt32(&cycles, 1)
		panic("boom")
	})

	s.Start(context.Background())
	if !s.Pending() {
		t.Fatal("expected a pending timer after a panicking cycle")
	}
	mock.Add(15 * time.Second)
	waitFor(t, "cycle after panic", func() bool { return atomic.LoadInt32(&cycles) == 2 })
	waitFor(t, "reschedule after panic", s.Pending)
}

func TestRestartLeavesExactlyOneTimer(t *testing.T) {
	mock := clock.NewMock()
	var cycles int32
	s := newTestScheduler(mock, func(context.Context) { atomic.AddInt32(&cycles, 1) })
	ctx := context.Background()

	s.Start(ctx)
	mock.Add(5 * time.Second)
	s.Start(ctx)
	s.Start(ctx)
	if got := atomic.LoadInt32(&cycles); got != 3 {
		t.Fatalf("expected three synchronous cycles, got %d", got)
	}

	// The first loop's timer would have fired at t=15s; it was superseded.
	mock.Add(10 * time.Second)
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&cycles); got != 3 {
		t.Fatalf("superseded timer fired: %d cycles", got)
	}

	// Only the latest loop fires at t=20s.
	mock.Add(5 * time.Second)
	waitFor(t, "latest loop", func() bool { return atomic.LoadInt32(&cycles) == 4 })
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&cycles); got != 4 {
		t.Fatalf("expected exactly one cycle from one timer, got %d", got)
	}
}

func TestStopCancelsPendingTimer(t *testing.T) {
	mock := clock.NewMock()
	var cycles int32
	s := newTestScheduler(mock, func(context.Context) { atomic.AddInt32(&cycles, 1) })

	s.Start(context.Background())
	s.Stop()
	if s.Pending() {
		t.Fatal("expected no pending timer after Stop")
	}
	mock.Add(time.Minute)
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&cycles); got != 1 {
		t.Fatalf("expected no cycles after Stop, got %d", got)
	}
}

func TestCancelledContextEndsLoop(t *testing.T) {
	mock := clock.NewMock()
	var cycles int32
	s := newTestScheduler(mock, func(context.Context) { atomic.AddInt32(&cycles, 1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	mock.Add(15 * time.Second)
	time.Sleep(5 * time.Millisecond)
	if got := atomic.LoadInt32(&cycles); got != 1 {
		t.Fatalf("expected the loop to end with its context, got %d cycles", got)
	}
	if s.Pending() {
		t.Fatal("expected no reschedule after cancellation")
	}
}
