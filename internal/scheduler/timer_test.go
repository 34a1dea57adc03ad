package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/feastly/api/internal/domain"
)

type recordingApplier struct {
	mu       sync.Mutex
	applied  []Transition
	orderIDs []string
	err      error
	fired    chan struct{}
}

func newRecordingApplier(capacity int) *recordingApplier {
	return &recordingApplier{fired: make(chan struct{}, capacity)}
}

func (r *recordingApplier) ApplyTransition(_ context.Context, orderID string, transition Transition) error {
	r.mu.Lock()
	r.applied = append(r.applied, transition)
	r.orderIDs = append(r.orderIDs, orderID)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return r.err
}

func (r *recordingApplier) snapshot() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.applied))
	copy(out, r.applied)
	return out
}

func waitFired(t *testing.T, applier *recordingApplier, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-applier.fired:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for transition %d of %d", i+1, n)
		}
	}
}

func TestTimerSchedulerFiresElapsedTransitionsImmediately(t *testing.T) {
	applier := newRecordingApplier(3)
	sched := NewTimerScheduler(applier)
	defer sched.Stop()

	// createdAt lies far enough in the past that every offset already elapsed.
	createdAt := time.Now().Add(-2 * time.Minute)
	sched.ScheduleProgression("ord_1", createdAt, DefaultProgression(
		10*time.Second, 30*time.Second, 60*time.Second, 85, 70,
	))

	waitFired(t, applier, 3)

	applied := applier.snapshot()
	statuses := map[domain.OrderStatus]bool{}
	for _, transition := range applied {
		statuses[transition.Status] = true
	}
	for _, want := range []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered} {
		if !statuses[want] {
			t.Fatalf("missing transition %q in %v", want, applied)
		}
	}
}

func TestTimerSchedulerHonoursOffsets(t *testing.T) {
	applier := newRecordingApplier(1)
	sched := NewTimerScheduler(applier)
	defer sched.Stop()

	sched.ScheduleProgression("ord_1", time.Now(), []Transition{
		{Status: domain.OrderStatusPreparing, Offset: 30 * time.Millisecond},
	})

	select {
	case <-applier.fired:
		t.Fatalf("transition fired before its offset elapsed")
	case <-time.After(5 * time.Millisecond):
	}

	waitFired(t, applier, 1)
}

func TestTimerSchedulerSwallowsApplierErrors(t *testing.T) {
	applier := newRecordingApplier(2)
	applier.err = errors.New("order already deleted")
	sched := NewTimerScheduler(applier)
	defer sched.Stop()

	sched.ScheduleProgression("ord_1", time.Now().Add(-time.Minute), []Transition{
		{Status: domain.OrderStatusPreparing, Offset: time.Second},
		{Status: domain.OrderStatusDelivered, Offset: 2 * time.Second},
	})

	// Both transitions fire despite every application failing.
	waitFired(t, applier, 2)
}

func TestTimerSchedulerStopCancelsPendingTimers(t *testing.T) {
	applier := newRecordingApplier(1)
	sched := NewTimerScheduler(applier)

	sched.ScheduleProgression("ord_1", time.Now(), []Transition{
		{Status: domain.OrderStatusPreparing, Offset: time.Hour},
	})
	sched.Stop()

	select {
	case <-applier.fired:
		t.Fatalf("transition fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerSchedulerIgnoresScheduleAfterStop(t *testing.T) {
	applier := newRecordingApplier(1)
	sched := NewTimerScheduler(applier)
	sched.Stop()

	sched.ScheduleProgression("ord_1", time.Now().Add(-time.Minute), []Transition{
		{Status: domain.OrderStatusPreparing, Offset: time.Second},
	})

	select {
	case <-applier.fired:
		t.Fatalf("transition fired on a stopped scheduler")
	case <-time.After(50 * time.Millisecond):
	}
}
