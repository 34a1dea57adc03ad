package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	refPrefix           = "secret://"
	defaultFallbackPath = ".secrets.local"
	meterName           = "github.com/feastly/api/internal/platform/secrets"
)

// ErrSecretNotFound indicates the referenced secret does not exist.
var ErrSecretNotFound = errors.New("secrets: not found")

var clientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references using Google Secret Manager with an
// in-process cache and a local file fallback for development.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	clientOpts []option.ClientOption

	logger    *zap.Logger
	projectID string

	fallbackPath string
	fallbackOnce sync.Once
	fallbackVals map[string]string
	fallbackErr  error

	mu    sync.RWMutex
	cache map[string]string

	resolves  metric.Int64Counter
	cacheHits metric.Int64Counter
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	logger       *zap.Logger
	projectID    string
	fallbackPath string
	client       secretManagerClient
	clientOpts   []option.ClientOption
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) { cfg.logger = logger }
}

// WithProject sets the default project used for bare secret names.
func WithProject(projectID string) Option {
	return func(cfg *fetcherConfig) { cfg.projectID = strings.TrimSpace(projectID) }
}

// WithFallbackFile overrides the path of the local fallback secrets file.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) { cfg.fallbackPath = strings.TrimSpace(path) }
}

// WithClient injects a preconfigured Secret Manager client (primarily for tests).
func WithClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) { cfg.client = client }
}

// WithClientOptions appends options used when constructing the default client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewFetcher constructs a Fetcher. The Secret Manager client is created lazily
// on first remote resolution so offline development with the fallback file
// needs no credentials.
func NewFetcher(opts ...Option) *Fetcher {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		fallbackPath: defaultFallbackPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	meter := otel.Meter(meterName)
	resolves, _ := meter.Int64Counter("secrets.resolve.count")
	cacheHits, _ := meter.Int64Counter("secrets.cache.hits")

	f := &Fetcher{
		client:       cfg.client,
		logger:       cfg.logger,
		projectID:    cfg.projectID,
		fallbackPath: cfg.fallbackPath,
		cache:        make(map[string]string),
		resolves:     resolves,
		cacheHits:    cacheHits,
	}
	if cfg.client == nil {
		f.clientOpts = cfg.clientOpts
	}
	return f
}

// Resolve resolves a secret:// reference to its payload. Non-references are
// returned unchanged so the resolver can be applied uniformly.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	if f == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, refPrefix) {
		return ref, nil
	}
	name := strings.TrimPrefix(ref, refPrefix)
	if name == "" {
		return "", fmt.Errorf("secrets: empty reference %q", ref)
	}

	f.mu.RLock()
	cached, ok := f.cache[name]
	f.mu.RUnlock()
	if ok {
		f.count(ctx, f.cacheHits, name)
		return cached, nil
	}

	value, err := f.fetch(ctx, name)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.cache[name] = value
	f.mu.Unlock()
	f.count(ctx, f.resolves, name)
	return value, nil
}

// Close releases the Secret Manager client when the fetcher owns it.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}

func (f *Fetcher) fetch(ctx context.Context, name string) (string, error) {
	if value, ok := f.fromFallback(name); ok {
		f.logger.Debug("secret resolved from fallback file", zap.String("secret", redact(name)))
		return value, nil
	}

	client, err := f.remoteClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: f.versionResource(name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, redact(name))
		}
		return "", fmt.Errorf("secrets: access %s: %w", redact(name), err)
	}
	payload := resp.GetPayload().GetData()
	return strings.TrimSpace(string(payload)), nil
}

func (f *Fetcher) remoteClient(ctx context.Context) (secretManagerClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client, nil
	}
	client, err := clientFactory(ctx, f.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: create client: %w", err)
	}
	f.client = client
	f.ownsClient = true
	return client, nil
}

// versionResource expands a bare name into a full Secret Manager version path.
// Full resource paths and name@version pins are passed through.
func (f *Fetcher) versionResource(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	version := "latest"
	if at := strings.LastIndex(name, "@"); at > 0 {
		version = name[at+1:]
		name = name[:at]
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", f.projectID, name, version)
}

func (f *Fetcher) fromFallback(name string) (string, bool) {
	f.fallbackOnce.Do(func() {
		f.fallbackVals, f.fallbackErr = loadFallbackFile(f.fallbackPath)
		if f.fallbackErr != nil {
			f.logger.Warn("secrets fallback file unreadable", zap.Error(f.fallbackErr))
		}
	})
	if f.fallbackVals == nil {
		return "", false
	}
	key := name
	if at := strings.LastIndex(key, "@"); at > 0 {
		key = key[:at]
	}
	value, ok := f.fallbackVals[key]
	return value, ok
}

func (f *Fetcher) count(ctx context.Context, counter metric.Int64Counter, name string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("secret", redact(name))))
}

func loadFallbackFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return values, scanner.Err()
}

// redact keeps only a short prefix of the secret name for logs and metrics.
func redact(name string) string {
	if len(name) <= 12 {
		return name
	}
	return name[:12] + "…"
}
