package classify

import (
	"context"
	"sync"
	"time"

	"github.com/cascadefn/platform/logger"
	"github.com/cascadefn/platform/resilience"
	"github.com/cascadefn/platform/telemetry"
)

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default TTL applied to fresh writes.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCircuitBreaker wraps the producer call with cb, tripping it when
// the external classifier starts failing instead of hammering it on
// every cache miss.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Cache) { c.breaker = cb }
}

// WithRetry retries a transient producer failure before falling back
// to the heuristic.
func WithRetry(cfg *resilience.RetryConfig) Option {
	return func(c *Cache) { c.retry = cfg }
}

// WithTelemetry attaches a span/metric recorder around cache
// lookups and producer calls.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(c *Cache) { c.telemetry = t }
}

// WithLogger attaches a logger for producer/fallback events.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// latch collapses concurrent cache misses for the same key into a
// single producer call, the "single-writer-per-key" discipline the
// cache is specified to uphold.
type latch struct {
	done   chan struct{}
	result Classification
	err    error
}

// Cache is the read-through classification cache: memoize
// (name, description, schema) -> Classification behind a Store, with
// an external Producer as the read-through source and a deterministic
// fallback when the producer is unavailable.
type Cache struct {
	store    Store
	producer Producer
	ttl      time.Duration

	breaker   *resilience.CircuitBreaker
	retry     *resilience.RetryConfig
	telemetry telemetry.Telemetry
	logger    logger.Logger

	mu       sync.Mutex
	inflight map[string]*latch
}

// NewCache builds a Cache over store and producer.
func NewCache(store Store, producer Producer, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		producer:  producer,
		ttl:       10 * time.Minute,
		telemetry: telemetry.NoOp{},
		logger:    logger.NoOp{},
		inflight:  make(map[string]*latch),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the cached tier classification for a function
// signature, producing and caching it on a miss, or falling back to a
// deterministic heuristic (never cached) if the producer is
// unavailable.
func (c *Cache) Classify(ctx context.Context, name, description, schemaDigest string) (Classification, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "classify.Classify")
	defer span.End()

	key := Key(name, description, schemaDigest)

	if cached, ok, err := c.store.Get(ctx, key); err == nil && ok {
		span.SetAttribute("classify.cache_hit", true)
		return cached, nil
	}
	span.SetAttribute("classify.cache_hit", false)

	return c.resolve(ctx, key, name, description, schemaDigest)
}

// resolve runs the producer exactly once per key among concurrent
// callers, writing the winning result to the store.
func (c *Cache) resolve(ctx context.Context, key, name, description, schemaDigest string) (Classification, error) {
	c.mu.Lock()
	if l, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-l.done
		return l.result, l.err
	}

	l := &latch{done: make(chan struct{})}
	c.inflight[key] = l
	c.mu.Unlock()

	l.result, l.err = c.produce(ctx, key, name, description, schemaDigest)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(l.done)

	return l.result, l.err
}

func (c *Cache) produce(ctx context.Context, key, name, description, schemaDigest string) (Classification, error) {
	var result Classification
	call := func() error {
		var err error
		result, err = c.producer.Classify(ctx, name, description, schemaDigest)
		return err
	}

	var err error
	switch {
	case c.breaker != nil && c.retry != nil:
		err = resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, call)
	case c.breaker != nil:
		err = c.breaker.Execute(ctx, call)
	case c.retry != nil:
		err = resilience.Retry(ctx, c.retry, call)
	default:
		err = call()
	}

	if err != nil {
		c.logger.Warn("classification producer unavailable, using fallback", logger.F("name", name), logger.F("error", err.Error()))
		telemetry.RecordSpanError(ctx, err)
		c.telemetry.RecordMetric("classify.fallback", 1, map[string]string{"name": name})
		return FallbackHeuristic(name, description, schemaDigest), nil
	}

	if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
		c.logger.Warn("failed to cache classification", logger.F("key", key), logger.F("error", err.Error()))
	}
	return result, nil
}

// Invalidate evicts a single cached classification by exact key.
func (c *Cache) Invalidate(ctx context.Context, name, description, schemaDigest string) error {
	return c.store.Delete(ctx, Key(name, description, schemaDigest))
}

// Clear evicts every tracked cache entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
