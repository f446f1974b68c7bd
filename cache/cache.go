package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jenny-s51/patternfly-mcp/fingerprint"
)

// DefaultCapacity is the maximum number of resident entries when
// WithCapacity is not given.
const DefaultCapacity = 100

// DefaultTTL is the sliding expiration window when WithTTL is not given.
const DefaultTTL = 5 * time.Minute

// Loader produces the value for a key on a cache miss.
type Loader[K, V any] func(ctx context.Context, key K) (V, error)

// config holds the resolved configuration for a Cache. It is immutable
// after construction; "changing" a cache's configuration means building a
// new instance.
type config struct {
	capacity    int
	ttl         time.Duration
	cacheErrors bool
}

// Option configures a Cache.
type Option func(*config)

// WithCapacity sets the maximum number of resident entries. Values below 1
// are ignored. Defaults to DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithTTL sets the sliding expiration window. Every observation of an entry
// extends its life by the full TTL. Defaults to DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithCacheErrors controls whether failed loads are retained for the TTL.
// Defaults to false: a failure is discarded as it settles and the next call
// retries the loader.
func WithCacheErrors(cache bool) Option {
	return func(c *config) { c.cacheErrors = cache }
}

// entry is the unit of residency. It is created pending, settles exactly
// once, and is owned by a single Cache instance.
type entry[V any] struct {
	fingerprint string
	done        chan struct{} // closed when the load settles
	value       V
	err         error
	expiresAt   time.Time
}

// Cache memoizes a Loader. See the package documentation for the residency
// and deduplication rules.
type Cache[K, V any] struct {
	loader Loader[K, V]
	cfg    config
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
}

// New wraps loader into a memoization cache.
func New[K, V any](loader Loader[K, V], opts ...Option) *Cache[K, V] {
	cfg := config{capacity: DefaultCapacity, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache[K, V]{
		loader:  loader,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// GetOrLoad returns the cached outcome for key, invoking the loader on a
// miss. Concurrent callers for the same key share one loader invocation.
// The loader runs on the first caller's ctx; a later caller whose own ctx
// is cancelled while waiting unblocks with its ctx error without disturbing
// the in-flight load.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K) (V, error) {
	f := fingerprint.Key(key)

	c.mu.Lock()
	if elem, ok := c.entries[f]; ok {
		e := elem.Value.(*entry[V])
		if !settled(e) || c.now().Before(e.expiresAt) {
			c.order.MoveToFront(elem)
			e.expiresAt = c.now().Add(c.cfg.ttl)
			c.mu.Unlock()
			return c.await(ctx, e)
		}
		// Expired. Treated identically to absent.
		c.removeLocked(elem)
	}

	e := &entry[V]{fingerprint: f, done: make(chan struct{})}
	if c.order.Len() >= c.cfg.capacity {
		c.removeLocked(c.order.Back())
	}
	c.entries[f] = c.order.PushFront(e)
	c.mu.Unlock()

	value, err := c.loader(ctx, key)
	c.settle(e, value, err)
	return value, err
}

// Len reports the number of resident entries, settled or pending.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// settle records the loader outcome and wakes every waiter. A failure is
// dropped from the map immediately unless error caching is on; failures
// born of context cancellation or deadlines are always dropped. The entry
// may have been evicted or superseded while the load was in flight, in
// which case only waiters that already hold it see the outcome.
func (c *Cache[K, V]) settle(e *entry[V], value V, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.value = value
	e.err = err
	e.expiresAt = c.now().Add(c.cfg.ttl)
	close(e.done)
	if err == nil {
		return
	}
	if c.cfg.cacheErrors && !errors.IsAny(err, context.Canceled, context.DeadlineExceeded) {
		return
	}
	if elem, ok := c.entries[e.fingerprint]; ok && elem.Value.(*entry[V]) == e {
		c.removeLocked(elem)
	}
}

// await blocks until e settles or ctx is done, whichever comes first.
func (c *Cache[K, V]) await(ctx context.Context, e *entry[V]) (V, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[K, V]) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	e := elem.Value.(*entry[V])
	delete(c.entries, e.fingerprint)
	c.order.Remove(elem)
}

func settled[V any](e *entry[V]) bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
