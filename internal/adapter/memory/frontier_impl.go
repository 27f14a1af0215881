package memory

import (
	"context"
	"sync"
	"time"

	"github.com/user/frontier-crawler/internal/entity"
)

type record struct {
	status    entity.Status
	expiresAt time.Time
}

type counter struct {
	n         int64
	expiresAt time.Time
}

// FrontierRepoImpl is an in-process FrontierRepository. Enumeration order is first-insertion
// order of live entries, which keeps ListPending deterministic.
type FrontierRepoImpl struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	order    []string
	entries  map[string]record
	failures map[string]counter
	pointer  string
}

// Option configures a FrontierRepoImpl.
type Option func(*FrontierRepoImpl)

// WithClock replaces time.Now, for tests that need to cross the TTL.
func WithClock(now func() time.Time) Option {
	return func(r *FrontierRepoImpl) { r.now = now }
}

func NewFrontierRepo(ttl time.Duration, opts ...Option) *FrontierRepoImpl {
	r := &FrontierRepoImpl{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]record),
		failures: make(map[string]counter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// live returns the record for url if it has not expired. Caller holds mu.
func (r *FrontierRepoImpl) live(url string, now time.Time) (record, bool) {
	rec, ok := r.entries[url]
	if !ok || !now.Before(rec.expiresAt) {
		return record{}, false
	}
	return rec, true
}

// sweep drops expired entries and compacts order. Caller holds mu.
func (r *FrontierRepoImpl) sweep(now time.Time) {
	kept := r.order[:0]
	for _, url := range r.order {
		if _, ok := r.live(url, now); ok {
			kept = append(kept, url)
			continue
		}
		delete(r.entries, url)
	}
	r.order = kept
}

// put writes url with a fresh TTL. Caller holds mu.
func (r *FrontierRepoImpl) put(url string, status entity.Status) {
	now := r.now()
	if _, ok := r.live(url, now); !ok {
		// An expired entry comes back as a new one, at the end of the order.
		if _, stale := r.entries[url]; stale {
			r.sweep(now)
		}
		r.order = append(r.order, url)
	}
	r.entries[url] = record{status: status, expiresAt: now.Add(r.ttl)}
}

func (r *FrontierRepoImpl) Get(_ context.Context, url string) (entity.FrontierEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.live(url, r.now())
	if !ok {
		return entity.FrontierEntry{URL: url, Status: entity.StatusUnknown}, nil
	}
	return entity.FrontierEntry{URL: url, Status: rec.status, ExpiresAt: rec.expiresAt}, nil
}

func (r *FrontierRepoImpl) Exists(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live(url, r.now())
	return ok, nil
}

func (r *FrontierRepoImpl) MarkPending(_ context.Context, url string) error {
	r.mu.Lock()
	r.put(url, entity.StatusPending)
	r.mu.Unlock()
	return nil
}

func (r *FrontierRepoImpl) MarkVisited(_ context.Context, url string) error {
	r.mu.Lock()
	r.put(url, entity.StatusVisited)
	r.pointer = url
	r.mu.Unlock()
	return nil
}

func (r *FrontierRepoImpl) Size(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return int64(len(r.order)), nil
}

func (r *FrontierRepoImpl) ListPending(_ context.Context, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())

	var pending []string
	for _, url := range r.order {
		if r.entries[url].status != entity.StatusPending {
			continue
		}
		pending = append(pending, url)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (r *FrontierRepoImpl) ResumePointer(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointer, nil
}

func (r *FrontierRepoImpl) IncrementFailures(_ context.Context, url, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	c := r.failures[url]
	if !now.Before(c.expiresAt) {
		c.n = 0
	}
	c.n++
	c.expiresAt = now.Add(r.ttl)
	r.failures[url] = c
	return c.n, nil
}

func (r *FrontierRepoImpl) Ping(context.Context) error { return nil }

func (r *FrontierRepoImpl) Close() error { return nil }
