package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"FIRESTORE_PROJECT_ID": "feastly-test",
		"AUTH_JWT_SECRET":      "super-secret",
	}
}

func loadWith(t *testing.T, env map[string]string, opts ...Option) Config {
	t.Helper()
	opts = append(opts, WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	cfg, err := Load(context.Background(), opts...)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadWith(t, baseEnv())

	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port: %q", cfg.Server.Port)
	}
	if cfg.Auth.Mode != AuthModeSharedSecret {
		t.Fatalf("unexpected auth mode: %q", cfg.Auth.Mode)
	}
	if cfg.Auth.RoleClaim != "role" {
		t.Fatalf("unexpected role claim: %q", cfg.Auth.RoleClaim)
	}
	if cfg.Simulation.PreparingAfter != 10*time.Second ||
		cfg.Simulation.OutForDeliveryAfter != 30*time.Second ||
		cfg.Simulation.DeliveredAfter != 60*time.Second {
		t.Fatalf("unexpected simulation offsets: %+v", cfg.Simulation)
	}
	if cfg.Simulation.ScoreOutForDelivery != 85 || cfg.Simulation.ScoreDelivered != 70 {
		t.Fatalf("unexpected simulation scores: %+v", cfg.Simulation)
	}
	if cfg.Idempotency.Header != "Idempotency-Key" || cfg.Idempotency.TTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency defaults: %+v", cfg.Idempotency)
	}
	if !cfg.Catalog.SeedOnEmpty {
		t.Fatalf("catalog seeding should default on")
	}
	if cfg.Events.Enabled {
		t.Fatalf("events should be disabled without a topic")
	}
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["SIM_PREPARING_AFTER"] = "5s"
	env["SIM_OUT_FOR_DELIVERY_AFTER"] = "15s"
	env["SIM_DELIVERED_AFTER"] = "45s"
	env["SIM_SCORE_DELIVERED"] = "60"
	env["EVENTS_TOPIC_ID"] = "order-events"

	cfg := loadWith(t, env)

	if cfg.Server.Port != "9090" {
		t.Fatalf("port override ignored: %q", cfg.Server.Port)
	}
	if cfg.Simulation.PreparingAfter != 5*time.Second || cfg.Simulation.ScoreDelivered != 60 {
		t.Fatalf("simulation overrides ignored: %+v", cfg.Simulation)
	}
	if !cfg.Events.Enabled || cfg.Events.ProjectID != "feastly-test" {
		t.Fatalf("topic should enable events with firestore project: %+v", cfg.Events)
	}
}

func TestLoadRequiresProject(t *testing.T) {
	env := baseEnv()
	delete(env, "FIRESTORE_PROJECT_ID")

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadRequiresSecretForSharedMode(t *testing.T) {
	env := baseEnv()
	delete(env, "AUTH_JWT_SECRET")

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadJWKSModeRequiresURL(t *testing.T) {
	env := map[string]string{
		"FIRESTORE_PROJECT_ID": "feastly-test",
		"AUTH_MODE":            "jwks",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	env["AUTH_JWKS_URL"] = "https://identity.feastly.dev/.well-known/jwks.json"
	cfg := loadWith(t, env)
	if cfg.Auth.Mode != AuthModeJWKS {
		t.Fatalf("unexpected auth mode: %q", cfg.Auth.Mode)
	}
}

func TestLoadRejectsUnorderedSimulationOffsets(t *testing.T) {
	env := baseEnv()
	env["SIM_PREPARING_AFTER"] = "30s"
	env["SIM_OUT_FOR_DELIVERY_AFTER"] = "10s"

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type staticResolver map[string]string

func (r staticResolver) ResolveSecret(_ context.Context, ref string) (string, error) {
	value, ok := r[ref]
	if !ok {
		return "", errors.New("unknown secret")
	}
	return value, nil
}

func TestLoadResolvesSecretReferences(t *testing.T) {
	env := baseEnv()
	env["AUTH_JWT_SECRET"] = "secret://jwt-signing-key"

	cfg := loadWith(t, env, WithSecretResolver(staticResolver{
		"secret://jwt-signing-key": "resolved-secret",
	}))

	if cfg.Auth.JWTSecret != "resolved-secret" {
		t.Fatalf("secret reference not resolved: %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadFailsOnUnresolvableSecret(t *testing.T) {
	env := baseEnv()
	env["AUTH_JWT_SECRET"] = "secret://missing"

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile("testdata/does-not-exist.env"))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected secret error, got %v", err)
	}
}
