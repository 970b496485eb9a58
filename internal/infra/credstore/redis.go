// Package credstore resolves API credentials from a Redis key-value store,
// degrading to a statically configured token when the store is unreachable.
// A credential-store outage must never fail an export.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"figpull/internal/resilience/circuitbreaker"

	"github.com/redis/go-redis/v9"
)

// Sentinel errors for credential store operations.
var (
	// ErrNotConnected indicates Get was called before Connect succeeded
	ErrNotConnected = errors.New("credential store not connected")

	// ErrNotFound indicates the requested key does not exist in the store
	ErrNotFound = errors.New("credential not found")
)

// Store is the read-only credential lookup contract consumed by TokenSource.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// Config holds the configuration for the Redis-backed store.
type Config struct {
	// Addr is the Redis host:port
	Addr string

	// Password is the Redis AUTH password, empty for none
	Password string

	// DB is the Redis logical database number
	DB int

	// DialTimeout bounds the initial connection attempt
	DialTimeout time.Duration

	// OpTimeout bounds individual lookups
	OpTimeout time.Duration
}

// DefaultConfig returns a default Redis store configuration for addr.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		OpTimeout:   2 * time.Second,
	}
}

// RedisStore is a Redis-backed credential store with an explicit
// connect/disconnect lifecycle and a connectivity-state flag. Lookups are
// guarded by a circuit breaker so a dead Redis fails fast.
//
// Thread safety: RedisStore is safe for concurrent use.
type RedisStore struct {
	config    Config
	client    *redis.Client
	breaker   *circuitbreaker.CircuitBreaker
	logger    *slog.Logger
	connected atomic.Bool
}

// NewRedisStore creates a store for the given configuration. No connection
// is made until Connect is called.
func NewRedisStore(config Config, logger *slog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.OpTimeout,
		WriteTimeout: config.OpTimeout,
	})

	return &RedisStore{
		config:  config,
		client:  client,
		breaker: circuitbreaker.New(circuitbreaker.CredentialStoreConfig()),
		logger:  logger,
	}
}

// Connect verifies connectivity with a PING and flips the connectivity flag.
// A failed Connect leaves the store usable only as a reported-disconnected
// store; callers are expected to fall back to static credentials.
func (s *RedisStore) Connect(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Warn("credential store connection failed",
			slog.String("addr", s.config.Addr),
			slog.Any("error", err))
		return fmt.Errorf("connect credential store at %s: %w", s.config.Addr, err)
	}

	s.connected.Store(true)
	s.logger.Info("credential store connected", slog.String("addr", s.config.Addr))
	return nil
}

// Connected reports whether Connect has succeeded and Close has not yet run.
func (s *RedisStore) Connected() bool {
	return s.connected.Load()
}

// Close flips the connectivity flag and releases the underlying client.
func (s *RedisStore) Close() error {
	s.connected.Store(false)
	return s.client.Close()
}

// Get looks up a credential by key. Returns ErrNotConnected before Connect,
// ErrNotFound for a missing key, and the breaker's error when the circuit
// is open.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if !s.Connected() {
		return "", ErrNotConnected
	}

	value, err := s.breaker.Execute(func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.config.OpTimeout)
		defer cancel()

		v, err := s.client.Get(opCtx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("credential lookup %q: %w", key, err)
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}
