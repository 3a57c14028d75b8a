// Package cache holds the in-process caches used for ledger reads.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a keyed store with expiry.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Loading wraps a Cache so that concurrent misses on the same key run the loader once.
// Invalidate starts a new generation: loads begun before it never fill the cache,
// and later callers do not join them.
type Loading[T any] struct {
	cache Cache[T]
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func NewLoading[T any](c Cache[T]) *Loading[T] {
	return &Loading[T]{cache: c}
}

// GetOrLoad returns the cached value for key or fills it with load.
// Errors are returned to every waiter and never cached.
func (l *Loading[T]) GetOrLoad(key string, load func() (T, error)) (T, bool, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}
	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()

	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := l.group.Do(flight, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.cache.Set(key, v)
		}
		l.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Invalidate forgets every cached value and detaches in-flight loads from the cache.
func (l *Loading[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.cache.Purge()
}

// Manager periodically sweeps expired entries from its registered caches.
type Manager struct {
	caches []Cleaner
	logger *slog.Logger
	done   chan struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, done: make(chan struct{})}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start sweeps every interval until ctx is cancelled. Wait blocks until the loop exits.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug("Expired cache entries removed", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sweep cleans every registered cache once and returns the number of removed entries.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) Wait() {
	<-m.done
}
