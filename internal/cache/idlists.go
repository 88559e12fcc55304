package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"podcast-discovery/internal/metrics"
)

// BreakerSettings configures the circuit breaker in front of a Store.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings trips after 5 consecutive failures and probes again
// after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

// IDLists caches ordered id lists in a Store. None of its methods return an
// error: every store, codec or breaker failure is logged and reported as a
// miss, so callers always fall back to computing the list themselves.
type IDLists struct {
	name    string
	store   Store
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewIDLists wraps store. A nil store behaves like Noop.
func NewIDLists(name string, store Store, settings BreakerSettings, logger zerolog.Logger) *IDLists {
	if store == nil {
		store = Noop{}
	}
	if settings.FailureThreshold == 0 {
		settings = DefaultBreakerSettings()
	}

	l := logger.With().Str("component", "cache").Str("cache", name).Logger()
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Misses and caller cancellations do not count against the store.
			return err == nil || errors.Is(err, ErrMiss) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("from", from.String()).Str("to", to.String()).Msg("cache circuit breaker state changed")
		},
	})

	return &IDLists{name: name, store: store, breaker: cb, logger: l}
}

// Load returns the cached ids for key. ok is false on absence, on any failure,
// and for an empty list.
func (c *IDLists) Load(ctx context.Context, key string) (ids []string, ok bool) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.store.Get(ctx, key)
	})
	switch {
	case errors.Is(err, ErrMiss):
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	case err != nil:
		metrics.CacheRequests.WithLabelValues(c.name, "error").Inc()
		c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return nil, false
	}

	ids, err = DecodeIDList(data)
	if err != nil {
		metrics.CacheRequests.WithLabelValues(c.name, "error").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return nil, false
	}
	if len(ids) == 0 {
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	}

	metrics.CacheRequests.WithLabelValues(c.name, "hit").Inc()
	return ids, true
}

// Save writes ids under key with ttl. Failures are logged and dropped.
func (c *IDLists) Save(ctx context.Context, key string, ids []string, ttl time.Duration) {
	data, err := EncodeIDList(ids)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.store.Set(ctx, key, data, ttl)
	})
	if err != nil {
		metrics.CacheWrites.WithLabelValues(c.name, "error").Inc()
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	metrics.CacheWrites.WithLabelValues(c.name, "ok").Inc()
}
