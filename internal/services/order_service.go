package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/events"
	"github.com/feastly/api/internal/repositories"
	"github.com/feastly/api/internal/scheduler"
)

const (
	orderIDPrefix       = "ord_"
	orderNumberCounter  = "orders"
	estimatedArrivalGap = 30 * time.Minute

	// totalAmountTolerance is the largest allowed gap between the caller's
	// total and the server-side recomputed sum before the request is rejected.
	totalAmountTolerance = 0.01
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the requester is neither the owner nor an admin.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderConflict indicates duplicate keys or concurrent write conflicts.
	ErrOrderConflict = errors.New("order: conflict")
)

var validate = validator.New()

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders   repositories.OrderRepository
	Counters repositories.CounterRepository

	Scheduler   scheduler.TransitionScheduler
	Progression []scheduler.Transition
	Events      events.Publisher

	Clock          func() time.Time
	IDGenerator    func() string
	PlaceholderRef func() string
	Random         func() float64

	Logger *zap.Logger
}

type orderService struct {
	orders   repositories.OrderRepository
	counters repositories.CounterRepository

	scheduler   scheduler.TransitionScheduler
	progression []scheduler.Transition
	events      events.Publisher

	clock          func() time.Time
	newID          func() string
	placeholderRef func() string
	random         func() float64

	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	placeholder := deps.PlaceholderRef
	if placeholder == nil {
		placeholder = uuid.NewString
	}

	random := deps.Random
	if random == nil {
		random = rand.Float64
	}

	progression := deps.Progression
	if progression == nil {
		progression = scheduler.DefaultProgression(10*time.Second, 30*time.Second, 60*time.Second, 85, 70)
	}

	publisher := deps.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &orderService{
		orders:      deps.Orders,
		counters:    deps.Counters,
		scheduler:   deps.Scheduler,
		progression: progression,
		events:      publisher,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:          idGen,
		placeholderRef: placeholder,
		random:         random,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	if len(cmd.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	if err := validate.Struct(cmd); err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	if !domain.ValidPaymentMethod(cmd.PaymentMethod) {
		return domain.Order{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}

	items, recomputedTotal := s.buildItems(cmd.Items)
	if math.Abs(recomputedTotal-cmd.TotalAmount) > totalAmountTolerance {
		return domain.Order{}, fmt.Errorf("%w: totalAmount %.2f does not match item sum %.2f",
			ErrOrderInvalidInput, cmd.TotalAmount, recomputedTotal)
	}

	now := s.clock()

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	order := domain.Order{
		ID:              orderIDPrefix + s.newID(),
		OrderNumber:     number,
		UserID:          strings.TrimSpace(cmd.OwnerID),
		Items:           items,
		TotalAmount:     recomputedTotal,
		Status:          domain.OrderStatusConfirmed,
		ShippingAddress: s.sanitizeAddress(cmd.ShippingAddress),
		PaymentMethod:   domain.PaymentMethod(cmd.PaymentMethod),
		PaymentStatus:   domain.PaymentStatusCompleted,
		Eco: domain.EcoMetrics{
			CO2SavedKg:    math.Round(s.random()*2*100) / 100,
			BatchDelivery: s.random() < 0.5,
		},
		Delivery: domain.DeliveryMetrics{
			EstimatedArrival: now.Add(estimatedArrivalGap),
			QualityScore:     100,
		},
		Notes:     s.sanitizeText(cmd.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	if s.scheduler != nil {
		s.scheduler.ScheduleProgression(order.ID, order.CreatedAt, s.progression)
	}

	s.publishEvent(ctx, events.OrderEvent{
		Type:          events.TypeOrderCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		CurrentStatus: string(order.Status),
		ActorID:       order.UserID,
		OccurredAt:    now,
	})

	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, orderID string, requester Requester) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !canView(order, requester) {
		return domain.Order{}, fmt.Errorf("%w: requester %s cannot view order %s", ErrOrderForbidden, requester.ID, order.ID)
	}
	return order, nil
}

func (s *orderService) ListForOwner(ctx context.Context, ownerID string, query OrderListQuery) (domain.Page[domain.Order], error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.Page[domain.Order]{}, fmt.Errorf("%w: owner id is required", ErrOrderInvalidInput)
	}
	return s.list(ctx, ownerID, query)
}

func (s *orderService) ListAll(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error) {
	return s.list(ctx, "", query)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID, newStatus string, requester Requester) (domain.Order, error) {
	newStatus = strings.TrimSpace(newStatus)
	if newStatus == "" {
		return domain.Order{}, fmt.Errorf("%w: status is required", ErrOrderInvalidInput)
	}
	// Membership in the enum is the only constraint: any status may move to
	// any other status, including backward.
	if !domain.ValidOrderStatus(newStatus) {
		return domain.Order{}, fmt.Errorf("%w: invalid status %q", ErrOrderInvalidInput, newStatus)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !canMutate(order, requester) {
		return domain.Order{}, fmt.Errorf("%w: requester %s cannot update order %s", ErrOrderForbidden, requester.ID, order.ID)
	}

	now := s.clock()
	updated, err := s.orders.UpdateStatus(ctx, order.ID, repositories.OrderStatusPatch{
		Status:    domain.OrderStatus(newStatus),
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, events.OrderEvent{
		Type:           events.TypeOrderStatusChanged,
		OrderID:        updated.ID,
		OrderNumber:    updated.OrderNumber,
		UserID:         updated.UserID,
		PreviousStatus: string(order.Status),
		CurrentStatus:  string(updated.Status),
		ActorID:        requester.ID,
		OccurredAt:     now,
	})

	return updated, nil
}

func (s *orderService) Delete(ctx context.Context, orderID string, requester Requester) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if !canMutate(order, requester) {
		return fmt.Errorf("%w: requester %s cannot delete order %s", ErrOrderForbidden, requester.ID, order.ID)
	}

	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *orderService) list(ctx context.Context, ownerID string, query OrderListQuery) (domain.Page[domain.Order], error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	filter := repositories.OrderListFilter{
		UserID: ownerID,
		Status: strings.TrimSpace(query.Status),
		Page:   page,
		Limit:  limit,
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Order]{}, s.mapRepositoryError(err)
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return domain.Page[domain.Order]{}, s.mapRepositoryError(err)
	}

	pageCount := 0
	if total > 0 {
		pageCount = int((total + int64(limit) - 1) / int64(limit))
	}

	return domain.Page[domain.Order]{
		Items:       orders,
		Total:       total,
		PageCount:   pageCount,
		CurrentPage: page,
	}, nil
}

func (s *orderService) load(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) buildItems(inputs []CreateOrderItemInput) ([]domain.OrderItem, float64) {
	items := make([]domain.OrderItem, 0, len(inputs))
	total := 0.0
	for _, input := range inputs {
		ref := strings.TrimSpace(input.ProductRef)
		if ref == "" {
			// Unresolvable product references receive a placeholder so that
			// not-yet-persisted menu items remain orderable.
			ref = s.placeholderRef()
		}
		subtotal := input.Price * float64(input.Quantity)
		items = append(items, domain.OrderItem{
			ProductRef:  ref,
			ProductName: s.sanitizeText(input.ProductName),
			Image:       strings.TrimSpace(input.Image),
			Quantity:    input.Quantity,
			Price:       input.Price,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	return items, total
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderNumberCounter, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), seq), nil
}

func (s *orderService) sanitizeAddress(address domain.Address) domain.Address {
	return domain.Address{
		Street:     s.sanitizeText(address.Street),
		City:       s.sanitizeText(address.City),
		State:      s.sanitizeText(address.State),
		PostalCode: s.sanitizeText(address.PostalCode),
		Country:    s.sanitizeText(address.Country),
	}
}

func (s *orderService) sanitizeText(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *orderService) publishEvent(ctx context.Context, event events.OrderEvent) {
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Warn("order event publish failed",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func canView(order domain.Order, requester Requester) bool {
	return requester.ID != "" && (requester.ID == order.UserID || requester.IsAdmin())
}

func canMutate(order domain.Order, requester Requester) bool {
	return canView(order, requester)
}
