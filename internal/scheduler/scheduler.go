// Package scheduler provides the deferred status-progression capability used
// to simulate delivery stages. The default implementation fires in-process
// timers; the interface admits durable queue implementations.
package scheduler

import (
	"context"
	"time"

	domain "github.com/feastly/api/internal/domain"
)

// Transition describes a single deferred status mutation at an absolute
// offset from order creation. Offsets are independent of one another: a
// failed or slow transition never delays the next one.
type Transition struct {
	Status       domain.OrderStatus
	QualityScore *int
	Offset       time.Duration
}

// Applier performs the stored mutation for a fired transition.
type Applier interface {
	ApplyTransition(ctx context.Context, orderID string, transition Transition) error
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(ctx context.Context, orderID string, transition Transition) error

// ApplyTransition implements Applier.
func (f ApplierFunc) ApplyTransition(ctx context.Context, orderID string, transition Transition) error {
	if f == nil {
		return nil
	}
	return f(ctx, orderID, transition)
}

// TransitionScheduler schedules the progression sequence for a newly created
// order. Implementations must not block the caller.
type TransitionScheduler interface {
	ScheduleProgression(orderID string, createdAt time.Time, transitions []Transition)
}

// DefaultProgression builds the standard delivery simulation plan from the
// configured offsets and quality scores.
func DefaultProgression(preparingAfter, outForDeliveryAfter, deliveredAfter time.Duration, scoreOutForDelivery, scoreDelivered int) []Transition {
	outScore := scoreOutForDelivery
	deliveredScore := scoreDelivered
	return []Transition{
		{Status: domain.OrderStatusPreparing, Offset: preparingAfter},
		{Status: domain.OrderStatusOutForDelivery, QualityScore: &outScore, Offset: outForDeliveryAfter},
		{Status: domain.OrderStatusDelivered, QualityScore: &deliveredScore, Offset: deliveredAfter},
	}
}
