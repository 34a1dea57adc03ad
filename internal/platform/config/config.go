package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultAuthMode  = AuthModeSharedSecret
	defaultRoleClaim = "role"

	defaultIdempotencyHeader = "Idempotency-Key"
	defaultIdempotencyTTL    = 24 * time.Hour

	defaultPreparingAfter      = 10 * time.Second
	defaultOutForDeliveryAfter = 30 * time.Second
	defaultDeliveredAfter      = 60 * time.Second
	defaultEstimatedArrival    = 30 * time.Minute
	defaultScoreOutForDelivery = 85
	defaultScoreDelivered      = 70
)

// AuthMode selects how bearer tokens are verified.
type AuthMode string

const (
	// AuthModeSharedSecret verifies HS256 tokens with a shared signing secret.
	AuthModeSharedSecret AuthMode = "hs256"
	// AuthModeJWKS verifies RS256 tokens against a remote JWKS document.
	AuthModeJWKS AuthMode = "jwks"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firestore   FirestoreConfig
	Auth        AuthConfig
	Events      EventsConfig
	Catalog     CatalogConfig
	Simulation  SimulationConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// AuthConfig groups bearer-token verification settings. Token issuance lives
// in a separate identity service; this API only verifies.
type AuthConfig struct {
	Mode      AuthMode
	JWTSecret string
	JWKSURL   string
	Issuer    string
	Audience  string
	RoleClaim string
}

// EventsConfig controls order event publication.
type EventsConfig struct {
	ProjectID string
	TopicID   string
	Enabled   bool
}

// CatalogConfig controls menu catalog behaviour.
type CatalogConfig struct {
	SeedOnEmpty bool
}

// SimulationConfig tunes the delivery progression scheduler. The offsets are
// absolute relative to order creation, not chained.
type SimulationConfig struct {
	PreparingAfter      time.Duration
	OutForDeliveryAfter time.Duration
	DeliveredAfter      time.Duration
	EstimatedArrival    time.Duration
	ScoreOutForDelivery int
	ScoreDelivered      int
}

// IdempotencyConfig controls replay protection for order creation.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		if strings.TrimSpace(path) != "" {
			o.envFile = path
		}
	}
}

// WithEnvMap supplies explicit values taking precedence over file and system env.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment (used in tests).
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver enables secret:// reference resolution during loading.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// EnvironmentValues returns the effective key/value environment map after
// applying the same precedence rules as Load (dotenv < OS env < explicit map).
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]string)
	}

	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				continue
			}
			values[strings.TrimSpace(parts[0])] = parts[1]
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles the configuration from the environment, resolving secret://
// references through the configured resolver.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	values, err := EnvironmentValues(opts...)
	if err != nil {
		return Config{}, err
	}

	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	get := func(key string) string { return strings.TrimSpace(values[key]) }

	resolve := func(key string) (string, error) {
		raw := get(key)
		if !strings.HasPrefix(raw, "secret://") {
			return raw, nil
		}
		if options.secret == nil {
			return "", &SecretError{Ref: raw, Err: errSecretResolverNotConfigured}
		}
		resolved, err := options.secret.ResolveSecret(ctx, raw)
		if err != nil {
			return "", &SecretError{Ref: raw, Err: err}
		}
		return resolved, nil
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         valueOrDefault(get("PORT"), defaultPort),
			ReadTimeout:  durationOrDefault(get("SERVER_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout: durationOrDefault(get("SERVER_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:  durationOrDefault(get("SERVER_IDLE_TIMEOUT"), defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    get("FIRESTORE_PROJECT_ID"),
			EmulatorHost: get("FIRESTORE_EMULATOR_HOST"),
		},
		Auth: AuthConfig{
			Mode:      AuthMode(valueOrDefault(strings.ToLower(get("AUTH_MODE")), string(defaultAuthMode))),
			JWKSURL:   get("AUTH_JWKS_URL"),
			Issuer:    get("AUTH_ISSUER"),
			Audience:  get("AUTH_AUDIENCE"),
			RoleClaim: valueOrDefault(get("AUTH_ROLE_CLAIM"), defaultRoleClaim),
		},
		Events: EventsConfig{
			ProjectID: valueOrDefault(get("EVENTS_PROJECT_ID"), get("FIRESTORE_PROJECT_ID")),
			TopicID:   get("EVENTS_TOPIC_ID"),
			Enabled:   boolOrDefault(get("EVENTS_ENABLED"), get("EVENTS_TOPIC_ID") != ""),
		},
		Catalog: CatalogConfig{
			SeedOnEmpty: boolOrDefault(get("CATALOG_SEED_ON_EMPTY"), true),
		},
		Simulation: SimulationConfig{
			PreparingAfter:      durationOrDefault(get("SIM_PREPARING_AFTER"), defaultPreparingAfter),
			OutForDeliveryAfter: durationOrDefault(get("SIM_OUT_FOR_DELIVERY_AFTER"), defaultOutForDeliveryAfter),
			DeliveredAfter:      durationOrDefault(get("SIM_DELIVERED_AFTER"), defaultDeliveredAfter),
			EstimatedArrival:    durationOrDefault(get("SIM_ESTIMATED_ARRIVAL"), defaultEstimatedArrival),
			ScoreOutForDelivery: intOrDefault(get("SIM_SCORE_OUT_FOR_DELIVERY"), defaultScoreOutForDelivery),
			ScoreDelivered:      intOrDefault(get("SIM_SCORE_DELIVERED"), defaultScoreDelivered),
		},
		Idempotency: IdempotencyConfig{
			Header: valueOrDefault(get("IDEMPOTENCY_HEADER"), defaultIdempotencyHeader),
			TTL:    durationOrDefault(get("IDEMPOTENCY_TTL"), defaultIdempotencyTTL),
		},
	}

	secret, err := resolve("AUTH_JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	cfg.Auth.JWTSecret = secret

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var missing []string

	if cfg.Firestore.ProjectID == "" && cfg.Firestore.EmulatorHost == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	switch cfg.Auth.Mode {
	case AuthModeSharedSecret:
		if cfg.Auth.JWTSecret == "" {
			missing = append(missing, "AUTH_JWT_SECRET")
		}
	case AuthModeJWKS:
		if cfg.Auth.JWKSURL == "" {
			missing = append(missing, "AUTH_JWKS_URL")
		}
	default:
		missing = append(missing, "AUTH_MODE")
	}
	if cfg.Simulation.PreparingAfter <= 0 ||
		cfg.Simulation.OutForDeliveryAfter <= cfg.Simulation.PreparingAfter ||
		cfg.Simulation.DeliveredAfter <= cfg.Simulation.OutForDeliveryAfter {
		missing = append(missing, "SIM_*_AFTER")
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{fields: missing}
	}
	return nil
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func durationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func intOrDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loadDotEnv(path string) (map[string]string, error) {
	values := make(map[string]string)
	if strings.TrimSpace(path) == "" {
		return values, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}
