package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/feastly/api/internal/events"
	"github.com/feastly/api/internal/repositories"
	"github.com/feastly/api/internal/scheduler"
)

// ProgressionApplierDeps bundles the collaborators for scheduled transitions.
type ProgressionApplierDeps struct {
	Orders repositories.OrderRepository
	Events events.Publisher
	Clock  func() time.Time
	Logger *zap.Logger
}

// progressionApplier applies fired delivery-simulation transitions. Each
// application is an independent read-modify-write: it does not check whether
// the order was cancelled in the meantime, matching last-write-wins store
// semantics.
type progressionApplier struct {
	orders repositories.OrderRepository
	events events.Publisher
	clock  func() time.Time
	logger *zap.Logger
}

// NewProgressionApplier constructs the scheduler callback for delivery simulation.
func NewProgressionApplier(deps ProgressionApplierDeps) (scheduler.Applier, error) {
	if deps.Orders == nil {
		return nil, errors.New("progression applier: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	publisher := deps.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &progressionApplier{
		orders: deps.Orders,
		events: publisher,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ApplyTransition loads the order, writes the partial status update, and
// emits a status-changed event. Errors bubble to the scheduler, which logs
// and swallows them so the remaining timers fire regardless.
func (a *progressionApplier) ApplyTransition(ctx context.Context, orderID string, transition scheduler.Transition) error {
	previous, err := a.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	now := a.clock()
	updated, err := a.orders.UpdateStatus(ctx, orderID, repositories.OrderStatusPatch{
		Status:       transition.Status,
		QualityScore: transition.QualityScore,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}

	a.logger.Info("delivery simulation advanced order",
		zap.String("order_id", orderID),
		zap.String("status", string(updated.Status)),
	)

	if err := a.events.PublishOrderEvent(ctx, events.OrderEvent{
		Type:           events.TypeOrderStatusChanged,
		OrderID:        updated.ID,
		OrderNumber:    updated.OrderNumber,
		UserID:         updated.UserID,
		PreviousStatus: string(previous.Status),
		CurrentStatus:  string(updated.Status),
		OccurredAt:     now,
	}); err != nil {
		a.logger.Warn("order event publish failed",
			zap.String("type", events.TypeOrderStatusChanged),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	return nil
}
