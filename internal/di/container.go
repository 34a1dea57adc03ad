package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/feastly/api/internal/events"
	"github.com/feastly/api/internal/handlers"
	"github.com/feastly/api/internal/platform/auth"
	"github.com/feastly/api/internal/platform/config"
	pfirestore "github.com/feastly/api/internal/platform/firestore"
	"github.com/feastly/api/internal/platform/idempotency"
	"github.com/feastly/api/internal/platform/observability"
	"github.com/feastly/api/internal/repositories"
	fsrepo "github.com/feastly/api/internal/repositories/firestore"
	"github.com/feastly/api/internal/scheduler"
	"github.com/feastly/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Orders  services.OrderService
	Catalog services.CatalogService
}

// Container wires repositories, services, and background infrastructure for
// runtime use. Build it once in main and tear it down with Close.
type Container struct {
	Config       config.Config
	Logger       *zap.Logger
	Repositories repositories.Registry
	Services     Services
	Handler      http.Handler

	scheduler *scheduler.TimerScheduler
	publisher events.Publisher
	closers   []func(context.Context) error
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		return nil, errors.New("di: logger is required")
	}

	c := &Container{Config: cfg, Logger: logger}

	provider := pfirestore.NewProvider(cfg.Firestore)
	c.closers = append(c.closers, provider.Close)

	registry, err := fsrepo.NewRegistry(provider)
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build repository registry: %w", err)
	}
	c.Repositories = registry

	publisher, err := buildPublisher(ctx, cfg.Events)
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build event publisher: %w", err)
	}
	c.publisher = publisher
	if closer, ok := publisher.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	}

	applier, err := services.NewProgressionApplier(services.ProgressionApplierDeps{
		Orders: registry.Orders(),
		Events: publisher,
		Logger: logger,
	})
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build progression applier: %w", err)
	}

	c.scheduler = scheduler.NewTimerScheduler(applier, scheduler.WithLogger(logger))

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    registry.Orders(),
		Counters:  registry.Counters(),
		Scheduler: c.scheduler,
		Progression: scheduler.DefaultProgression(
			cfg.Simulation.PreparingAfter,
			cfg.Simulation.OutForDeliveryAfter,
			cfg.Simulation.DeliveredAfter,
			cfg.Simulation.ScoreOutForDelivery,
			cfg.Simulation.ScoreDelivered,
		),
		Events: publisher,
		Logger: logger,
	})
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build order service: %w", err)
	}
	c.Services.Orders = orderSvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		MenuItems:   registry.MenuItems(),
		SeedOnEmpty: cfg.Catalog.SeedOnEmpty,
		Logger:      logger,
	})
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build catalog service: %w", err)
	}
	c.Services.Catalog = catalogSvc

	verifier, err := buildVerifier(cfg.Auth)
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build token verifier: %w", err)
	}
	authn := auth.NewAuthenticator(verifier)

	idemStore, err := buildIdempotencyStore(ctx, provider)
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("di: build idempotency store: %w", err)
	}

	c.Handler = handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithOrderMiddlewares(
			authn.Require(),
			idempotency.Middleware(idemStore,
				idempotency.WithHeader(cfg.Idempotency.Header),
				idempotency.WithTTL(cfg.Idempotency.TTL),
				idempotency.WithMethods(http.MethodPost),
				idempotency.WithLogger(logger),
			),
		),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderSvc).Routes),
		handlers.WithMenuRoutes(handlers.NewMenuHandlers(catalogSvc).Routes),
	)

	return c, nil
}

// Close stops background timers and releases clients. Safe to call once.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	return c.shutdown(ctx)
}

func (c *Container) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func buildPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	if !cfg.Enabled || cfg.TopicID == "" {
		return events.NopPublisher{}, nil
	}
	return events.NewPubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID)
}

func buildVerifier(cfg config.AuthConfig) (auth.TokenVerifier, error) {
	opts := auth.VerifierOptions{
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		RoleClaim: cfg.RoleClaim,
	}
	switch cfg.Mode {
	case config.AuthModeJWKS:
		return auth.NewJWKSVerifier(auth.NewJWKSCache(cfg.JWKSURL), opts)
	case config.AuthModeSharedSecret:
		return auth.NewHS256Verifier(cfg.JWTSecret, opts)
	default:
		return nil, fmt.Errorf("di: unsupported auth mode %q", cfg.Mode)
	}
}

func buildIdempotencyStore(ctx context.Context, provider *pfirestore.Provider) (idempotency.Store, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := provider.Client(dialCtx)
	if err != nil {
		return nil, err
	}
	return idempotency.NewFirestoreStore(client), nil
}
