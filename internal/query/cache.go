package query

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/sync/singleflight"
)

// DefaultGCTime is how long an entry with no subscribers survives after its last read.
const DefaultGCTime = 5 * time.Minute

// Fetcher performs one remote read. ctx is cancelled when the cache is closed.
type Fetcher func(ctx context.Context) (any, error)

// Opts configures a [Cache].
type Opts struct {
	Logger *log.Logger
	Clock  clockwork.Clock
	// GCTime is the idle time after which an unobserved entry is evicted. Negative disables eviction.
	GCTime time.Duration
	// SweepInterval is how often the background sweeper runs, GCTime/2 by default. Negative leaves
	// sweeping to explicit [Cache.Sweep] calls.
	SweepInterval time.Duration
	// Context is the parent of every fetch. Defaults to [context.Background].
	Context context.Context
}

// Stats are counters since the cache was created. Hits are reads served fresh data; Joins are reads
// that attached to a fetch already running.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Joins     uint64
	Fetches   uint64
	Discarded uint64
	Errors    uint64
	Evictions uint64
}

type flight struct {
	epoch uint64
	done  chan struct{}

	// set before done is closed
	committed bool
	val       any
	err       error
}

type subscriber struct {
	fn      func(Result)
	enabled bool
	active  atomic.Bool
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       *FetchError
	stale     bool
	epoch     uint64
	inFlight  *flight
	fetcher   Fetcher
	subs      map[int]*subscriber
	updatedAt time.Time
	lastRead  time.Time
}

type notification struct {
	subs   []*subscriber
	result Result
}

// Cache maps query keys to server data. It deduplicates concurrent fetches per key and discards
// results that were overtaken by an invalidation.
//
// One mutex guards every entry; fetchers always run outside it.
type Cache struct {
	logger   *log.Logger
	clock    clockwork.Clock
	gcTime   time.Duration
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	nextSub int
	closed  bool
	queue   []notification
	cond    *sync.Cond
	stats   Stats

	wg sync.WaitGroup
}

// New creates a [Cache] and starts its notification dispatcher and, unless disabled, its sweeper.
func New(opts Opts) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	gcTime := opts.GCTime
	if gcTime == 0 {
		gcTime = DefaultGCTime
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	interval := opts.SweepInterval
	if interval == 0 {
		interval = gcTime / 2
	}

	c := &Cache{
		logger:   shared.WithLogger(logger, "component", "query"),
		clock:    clock,
		gcTime:   gcTime,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
	}
	c.cond = sync.NewCond(&c.mu)

	c.wg.Add(1)
	go c.dispatch()

	if gcTime > 0 && interval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return c
}

// Close cancels in-flight fetches and stops the background goroutines. Pending notifications are dropped.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queue = nil
	c.cond.Broadcast()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Read returns the entry for key without blocking. Fresh data comes back as [StatusSuccess]. Otherwise
// a fetch is started, or joined if one is already running, and the result is [StatusPending] with the
// last good data, if any.
func (c *Cache) Read(key Key, fetcher Fetcher, opts ...ReadOption) Result {
	o := readOptions(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Result{Status: StatusIdle, Err: shared.ErrCacheClosed}
	}

	e := c.entryLocked(key)
	e.lastRead = c.clock.Now()
	if fetcher != nil {
		e.fetcher = fetcher
	}
	if !o.enabled {
		return e.result()
	}

	c.ensureFetchLocked(e)
	return e.result()
}

// Fetch is the blocking form of [Cache.Read]: it waits for the fetch that serves key to settle and
// returns its data or its [*FetchError]. A fetch overtaken by an invalidation is followed to the
// fetch that replaced it.
func (c *Cache) Fetch(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, shared.ErrCacheClosed
		}

		e := c.entryLocked(key)
		e.lastRead = c.clock.Now()
		if fetcher != nil {
			e.fetcher = fetcher
		}
		c.ensureFetchLocked(e)

		fl := e.inFlight
		if fl == nil {
			data, ok := e.data, e.hasData
			c.mu.Unlock()
			if !ok {
				return nil, fmt.Errorf("%w: no fetcher for %s", shared.ErrInvalidArgument, key)
			}
			return data, nil
		}
		c.mu.Unlock()

		select {
		case <-fl.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if fl.committed {
			if fl.err != nil {
				return nil, fl.err
			}
			return fl.val, nil
		}
	}
}

// Peek returns the entry for key without touching it. ok is false when there is no entry.
func (c *Cache) Peek(key Key) (r Result, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Result{Status: StatusIdle}, false
	}
	return e.result(), true
}

// Invalidate marks key stale and advances its epoch, so a fetch already running for it will be
// discarded. Observed entries are refetched at once; others on their next read.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key.String()]; ok {
		c.invalidateLocked(e)
	}
}

// InvalidatePrefix invalidates every entry whose key starts with prefix.
func (c *Cache) InvalidatePrefix(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			c.invalidateLocked(e)
			n++
		}
	}
	return n
}

// Mutate performs one remote write. On success every entry under each of affected is invalidated and
// the write's result returned; on failure nothing is invalidated and a [*MutationError] is returned.
func (c *Cache) Mutate(ctx context.Context, write func(ctx context.Context) (any, error), affected ...Key) (any, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, &MutationError{Keys: affected, Err: shared.ErrCacheClosed}
	}

	v, err := write(ctx)
	if err != nil {
		c.logger.Debug("mutation failed", "keys", affected, "err", err)
		return nil, &MutationError{Keys: affected, Err: err}
	}

	for _, k := range affected {
		n := c.InvalidatePrefix(k)
		c.logger.Debug("invalidated", "prefix", k, "entries", n)
	}
	return v, nil
}

// Subscribe observes key. fn is called with the current result right away and again after every
// commit, failure and invalidation of the entry, in order, from a single goroutine. While at least one
// enabled subscriber exists the entry is refetched as soon as it is invalidated, using the latest fetcher.
// A subscriber created with WithEnabled(false) is notified but never causes a fetch.
func (c *Cache) Subscribe(key Key, fetcher Fetcher, fn func(Result), opts ...ReadOption) (cancel func()) {
	o := readOptions(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}

	e := c.entryLocked(key)
	e.lastRead = c.clock.Now()
	if fetcher != nil {
		e.fetcher = fetcher
	}

	sub := &subscriber{fn: fn, enabled: o.enabled}
	sub.active.Store(true)
	id := c.nextSub
	c.nextSub++
	e.subs[id] = sub

	if o.enabled {
		c.ensureFetchLocked(e)
	}
	c.enqueueLocked([]*subscriber{sub}, e.result())

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		sub.active.Store(false)
		delete(e.subs, id)
		e.lastRead = c.clock.Now()
	}
}

// Stats returns a copy of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.entries)
	return s
}

func (c *Cache) entryLocked(key Key) *entry {
	h := key.String()
	e, ok := c.entries[h]
	if !ok {
		e = &entry{key: key, subs: make(map[int]*subscriber)}
		c.entries[h] = e
	}
	return e
}

// ensureFetchLocked starts a fetch unless the entry is fresh or a fetch under the current epoch is running.
func (c *Cache) ensureFetchLocked(e *entry) {
	if e.inFlight != nil && e.inFlight.epoch == e.epoch {
		c.stats.Joins++
		return
	}
	if e.hasData && !e.stale {
		c.stats.Hits++
		return
	}
	c.stats.Misses++
	c.startFetchLocked(e)
}

func (c *Cache) startFetchLocked(e *entry) {
	if e.fetcher == nil {
		c.logger.Debug("no fetcher for entry", "key", e.key)
		return
	}

	e.epoch++
	fl := &flight{epoch: e.epoch, done: make(chan struct{})}
	e.inFlight = fl
	c.stats.Fetches++

	fetcher := e.fetcher
	flightKey := e.key.String() + "@" + strconv.FormatUint(fl.epoch, 10)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		v, err, _ := c.group.Do(flightKey, func() (any, error) {
			return fetcher(c.ctx)
		})
		c.settle(e, fl, v, err)
	}()
}

// settle applies a finished fetch. The epoch check is the only thing standing between a slow,
// obsolete response and the entry's data.
func (c *Cache) settle(e *entry, fl *flight, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(fl.done)

	if e.inFlight == fl {
		e.inFlight = nil
	}
	if fl.epoch != e.epoch {
		c.stats.Discarded++
		c.logger.Debug("discarding stale result", "key", e.key, "epoch", fl.epoch, "current", e.epoch)
		return
	}

	fl.committed = true
	if err != nil {
		c.stats.Errors++
		e.err = &FetchError{Key: e.key, Epoch: fl.epoch, Err: err}
		fl.err = e.err
		c.logger.Debug("fetch failed", "key", e.key, "err", err)
	} else {
		e.data = v
		e.hasData = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.clock.Now()
		fl.val = v
	}

	c.notifyLocked(e)
}

func (c *Cache) invalidateLocked(e *entry) {
	e.epoch++
	e.stale = true
	e.inFlight = nil

	if e.observed() && !c.closed {
		c.startFetchLocked(e)
	}
	c.notifyLocked(e)
}

// observed reports whether an enabled subscriber wants the entry kept current.
func (e *entry) observed() bool {
	for _, s := range e.subs {
		if s.enabled {
			return true
		}
	}
	return false
}

func (c *Cache) notifyLocked(e *entry) {
	if len(e.subs) == 0 {
		return
	}
	subs := make([]*subscriber, 0, len(e.subs))
	for _, s := range e.subs {
		subs = append(subs, s)
	}
	c.enqueueLocked(subs, e.result())
}

func (c *Cache) enqueueLocked(subs []*subscriber, r Result) {
	if c.closed {
		return
	}
	c.queue = append(c.queue, notification{subs: subs, result: r})
	c.cond.Signal()
}

// dispatch delivers notifications in the order they were queued, outside the lock.
func (c *Cache) dispatch() {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return
		}
		n := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		for _, s := range n.subs {
			if s.active.Load() {
				s.fn(n.result)
			}
		}
	}
}
