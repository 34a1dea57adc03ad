package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	jwt "github.com/golang-jwt/jwt/v4"
)

const (
	defaultJWKSRefreshInterval = 15 * time.Minute
	defaultJWKSFetchTimeout    = 5 * time.Second
)

var (
	// ErrJWKSKeyNotFound is returned when the requested key ID is absent from the JWKS document.
	ErrJWKSKeyNotFound = errors.New("auth: jwks key not found")
	// ErrJWKSFetchFailed wraps transport or decoding errors while refreshing JWKS.
	ErrJWKSFetchFailed = errors.New("auth: jwks fetch failed")
)

// JWKSCache lazily fetches and caches JSON Web Keys from a remote issuer.
type JWKSCache struct {
	url    string
	client *http.Client
	now    func() time.Time

	refreshInterval time.Duration

	mu     sync.RWMutex
	keys   map[string]jose.JSONWebKey
	expiry time.Time
}

// JWKSOption customises JWKSCache behaviour.
type JWKSOption func(*JWKSCache)

// WithJWKSHTTPClient overrides the HTTP client used to fetch JWKS documents.
func WithJWKSHTTPClient(client *http.Client) JWKSOption {
	return func(c *JWKSCache) {
		if client != nil {
			c.client = client
		}
	}
}

// WithJWKSRefreshInterval overrides how long a fetched key set is trusted.
func WithJWKSRefreshInterval(d time.Duration) JWKSOption {
	return func(c *JWKSCache) {
		if d > 0 {
			c.refreshInterval = d
		}
	}
}

// WithJWKSClock injects a custom time source (useful for tests).
func WithJWKSClock(now func() time.Time) JWKSOption {
	return func(c *JWKSCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWKSCache constructs a JWKS cache for the provided URL.
func NewJWKSCache(url string, opts ...JWKSOption) *JWKSCache {
	cache := &JWKSCache{
		url:             url,
		client:          &http.Client{Timeout: defaultJWKSFetchTimeout},
		now:             time.Now,
		refreshInterval: defaultJWKSRefreshInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache
}

// Key returns the public key with the given key ID, refreshing the cached
// document when it is stale or the key is unknown.
func (c *JWKSCache) Key(ctx context.Context, kid string) (jose.JSONWebKey, error) {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return jose.JSONWebKey{}, fmt.Errorf("%w: empty key id", ErrJWKSKeyNotFound)
	}

	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := c.now().Before(c.expiry)
	c.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := c.refresh(ctx); err != nil {
		// Serve a previously cached key on refresh failure.
		if ok {
			return key, nil
		}
		return jose.JSONWebKey{}, err
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return jose.JSONWebKey{}, fmt.Errorf("%w: %s", ErrJWKSKeyNotFound, kid)
	}
	return key, nil
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var document jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}

	keys := make(map[string]jose.JSONWebKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.KeyID != "" {
			keys[key.KeyID] = key
		}
	}

	c.mu.Lock()
	c.keys = keys
	c.expiry = c.now().Add(c.refreshInterval)
	c.mu.Unlock()
	return nil
}

// JWKSVerifier validates RS256 tokens against keys published by an external issuer.
type JWKSVerifier struct {
	cache *JWKSCache
	opts  VerifierOptions
}

// NewJWKSVerifier constructs a verifier backed by the given key cache.
func NewJWKSVerifier(cache *JWKSCache, opts VerifierOptions) (*JWKSVerifier, error) {
	if cache == nil {
		return nil, errors.New("auth: jwks cache is required")
	}
	return &JWKSVerifier{cache: cache, opts: opts}, nil
}

// Verify implements TokenVerifier.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v == nil || v.cache == nil {
		return nil, ErrTokenInvalid
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		key, err := v.cache.Key(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key.Key, nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return identityFromClaims(claims, v.opts)
}
