package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultApplyTimeout = 10 * time.Second

// TimerScheduler fires transitions via in-process timers. Timers are not
// persisted: a process restart drops any transitions that have not fired yet.
type TimerScheduler struct {
	applier Applier
	logger  *zap.Logger
	clock   func() time.Time
	timeout time.Duration

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	nextKey int64
	stopped bool
}

// TimerOption customises TimerScheduler behaviour.
type TimerOption func(*TimerScheduler)

// WithLogger sets the logger used for swallowed transition failures.
func WithLogger(logger *zap.Logger) TimerOption {
	return func(s *TimerScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a time source used to compute remaining delays.
func WithClock(clock func() time.Time) TimerOption {
	return func(s *TimerScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithApplyTimeout bounds the context handed to the applier per transition.
func WithApplyTimeout(d time.Duration) TimerOption {
	return func(s *TimerScheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewTimerScheduler constructs the in-process timer scheduler.
func NewTimerScheduler(applier Applier, opts ...TimerOption) *TimerScheduler {
	s := &TimerScheduler{
		applier: applier,
		logger:  zap.NewNop(),
		clock:   time.Now,
		timeout: defaultApplyTimeout,
		timers:  make(map[int64]*time.Timer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ScheduleProgression arms one independent timer per transition. Offsets are
// measured from createdAt, so a transition whose offset already elapsed fires
// immediately.
func (s *TimerScheduler) ScheduleProgression(orderID string, createdAt time.Time, transitions []Transition) {
	if s == nil || s.applier == nil || orderID == "" {
		return
	}

	now := s.clock()
	for _, transition := range transitions {
		delay := createdAt.Add(transition.Offset).Sub(now)
		if delay < 0 {
			delay = 0
		}
		s.arm(orderID, transition, delay)
	}
}

func (s *TimerScheduler) arm(orderID string, transition Transition, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	key := s.nextKey
	s.nextKey++

	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()

		s.fire(orderID, transition)
	})
}

func (s *TimerScheduler) fire(orderID string, transition Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.applier.ApplyTransition(ctx, orderID, transition); err != nil {
		// Failures are swallowed: remaining timers for the order fire regardless.
		s.logger.Warn("scheduled transition failed",
			zap.String("order_id", orderID),
			zap.String("status", string(transition.Status)),
			zap.Error(err),
		)
	}
}

// Stop cancels all outstanding timers. Transitions already firing complete.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

var _ TransitionScheduler = (*TimerScheduler)(nil)
