package usecase

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/biz/repo"
)

// SecretCache memoizes secret lookups for the lifetime of the process.
// A resolved value is reused verbatim for every later request and is never
// refreshed; restart the process to pick up rotated secrets.
type SecretCache struct {
	repo repo.SecretRepo
	log  zerolog.Logger

	mu        sync.Mutex
	values    map[string]string
	overrides map[string]string // secret name -> env var consulted first
}

// NewSecretCache creates a cache backed by the given store.
func NewSecretCache(r repo.SecretRepo, log zerolog.Logger) *SecretCache {
	return &SecretCache{
		repo:      r,
		log:       log.With().Str("component", "secrets").Logger(),
		values:    make(map[string]string),
		overrides: make(map[string]string),
	}
}

// SetEnvOverride registers an environment variable consulted before the
// upstream store for the named secret. Lets local runs skip the store
// entirely.
func (c *SecretCache) SetEnvOverride(name, envVar string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[name] = envVar
}

// Get returns the value for the named secret, fetching it from the upstream
// store at most once on the happy path. The lock is not held across store
// I/O, so concurrent first-time requests for the same name may race into a
// few redundant fetches; last write wins and all callers see a valid value.
func (c *SecretCache) Get(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if v, ok := c.values[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	envVar := c.overrides[name]
	c.mu.Unlock()

	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			c.log.Debug().Str("secret", name).Str("env_var", envVar).Msg("secret resolved from environment")
			c.store(name, v)
			return v, nil
		}
	}

	v, err := c.repo.GetSecretValue(ctx, name)
	if err != nil {
		return "", &repo.SecretUnavailableError{Name: name, Err: err}
	}
	if v == "" {
		return "", &repo.SecretUnavailableError{Name: name}
	}

	c.log.Debug().Str("secret", name).Msg("secret resolved from store")
	c.store(name, v)
	return v, nil
}

func (c *SecretCache) store(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// ExtractField pulls a named field out of a secret whose raw value is a JSON
// envelope, e.g. {"discord-bot-token": "..."}. Returns the raw value
// unchanged when it is not a JSON object or the field is absent.
func ExtractField(raw, field string) string {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return raw
	}
	if v, ok := m[field]; ok && v != "" {
		return v
	}
	return raw
}
