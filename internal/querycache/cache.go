// Package querycache keeps read results keyed by entity type and filter
// parameters, collapses identical in-flight reads, and invalidates by entity
// type after writes.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/mitaan/mitaan/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached read. Params are encoded canonically so equal
// filters produce equal keys.
type Key struct {
	Entity models.EntityType
	Params string
}

// NewKey builds a key from an entity type and filter parameters. Empty
// values are dropped.
func NewKey(entity models.EntityType, params map[string]string) Key {
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	// Encode sorts by key.
	return Key{Entity: entity, Params: v.Encode()}
}

func (k Key) String() string {
	if k.Params == "" {
		return string(k.Entity)
	}
	return string(k.Entity) + "?" + k.Params
}

// Status describes what is known about a key.
type Status int

const (
	// StatusIdle means no result has been loaded, either because the query
	// is disabled or it has never run.
	StatusIdle Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is the cached state for a key. Data is the last successful
// result and survives later errors.
type Snapshot struct {
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

type entry struct {
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	gen       uint64
	// invalid is set by Invalidate and cleared by a fetch that started
	// after the invalidation.
	invalid bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	gens     map[models.EntityType]uint64
	group    singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
	defStale time.Duration
	// fetchTimeout bounds a shared read, which no single caller owns.
	fetchTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger for fetch and invalidation events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithDefaultStaleTime sets the freshness window used when a query does not
// specify one.
func WithDefaultStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.defStale = d }
}

// WithFetchTimeout bounds how long a shared read may run.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.fetchTimeout = d }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		gens:    make(map[models.EntityType]uint64),
		now:     time.Now,
		logger:  zap.NewNop(),

		fetchTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query describes a read.
type Query[T any] struct {
	Key Key
	// Fetch performs the network read.
	Fetch func(ctx context.Context) (T, error)
	// StaleTime is how long a successful result is served without
	// refetching. Zero uses the cache default; negative always refetches.
	StaleTime time.Duration
	// Disabled suppresses the read entirely.
	Disabled bool
}

// ErrDisabled is returned by Fetch for a disabled query.
var ErrDisabled = errors.New("query disabled")

// Fetch returns the cached value for q.Key when it is fresh, and otherwise
// runs q.Fetch. Concurrent fetches for the same key share one call. The
// shared call is detached from any one caller's cancellation; a cancelled
// caller stops waiting while the others still receive the result.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	var zero T
	if q.Disabled {
		return zero, ErrDisabled
	}

	stale := q.StaleTime
	if stale == 0 {
		stale = c.defStale
	}

	c.mu.Lock()
	if e := c.entries[q.Key]; e != nil && e.hasData && !e.invalid && stale > 0 && c.now().Sub(e.updatedAt) < stale {
		data := e.data
		c.mu.Unlock()
		if v, ok := data.(T); ok {
			return v, nil
		}
		return zero, fmt.Errorf("cached value for %s has type %T", q.Key, data)
	}
	gen := c.gens[q.Key.Entity]
	c.mu.Unlock()

	// Reads started after an invalidation must not join a read started
	// before it.
	flightKey := fmt.Sprintf("%s#%d", q.Key, gen)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.logger.Debug("cache fetch", zap.String("key", q.Key.String()))
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		data, err := q.Fetch(fctx)
		c.store(q.Key, gen, data, err)
		return data, err
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("cache fetch deduplicated", zap.String("key", q.Key.String()))
		}
		if res.Err != nil {
			return zero, res.Err
		}
		out, _ := res.Val.(T)
		return out, nil
	}
}

func (c *Cache) store(key Key, gen uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	current := c.gens[key.Entity] == gen
	if !current && e.hasData && e.gen > gen {
		// A newer read already landed.
		return
	}
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = c.now()
	e.gen = gen
	// A read that began before an invalidation may predate the write, so
	// its result is kept for display but stays stale.
	e.invalid = !current
}

// Peek reports the cached state for key without fetching.
func (c *Cache) Peek(key Key, staleTime time.Duration) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if staleTime == 0 {
		staleTime = c.defStale
	}
	e := c.entries[key]
	if e == nil {
		return Snapshot{Status: StatusIdle}
	}
	snap := Snapshot{
		Data:      e.data,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.invalid || staleTime <= 0 || c.now().Sub(e.updatedAt) >= staleTime,
	}
	switch {
	case e.err != nil:
		snap.Status = StatusError
	case e.hasData:
		snap.Status = StatusSuccess
	default:
		snap.Status = StatusIdle
	}
	return snap
}

// Invalidate marks every key of entity stale. The next read of any such key
// goes to the network. It returns the number of keys affected.
func (c *Cache) Invalidate(entity models.EntityType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[entity]++
	n := 0
	for k, e := range c.entries {
		if k.Entity == entity {
			e.invalid = true
			n++
		}
	}
	c.logger.Debug("cache invalidated", zap.String("entity", string(entity)), zap.Int("keys", n))
	return n
}

// Mutate runs a write immediately. On success every key of the listed
// entity types is invalidated; on failure the cache is untouched.
func Mutate[T any](ctx context.Context, c *Cache, entities []models.EntityType, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	for _, e := range entities {
		c.Invalidate(e)
	}
	return v, nil
}
