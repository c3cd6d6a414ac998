package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	tu "github.com/meetingmind/mm/internal/testing"
)

const testGCTime = time.Minute

func newTestCache(t *testing.T) (*Cache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	c := New(Opts{Logger: tu.QuietLogger(), Clock: clock, GCTime: testGCTime, SweepInterval: -1})
	t.Cleanup(c.Close)
	return c, clock
}

type reply struct {
	v   any
	err error
}

// controlledFetcher blocks every call until the test answers it with respond.
type controlledFetcher struct {
	mu      sync.Mutex
	calls   []chan reply
	started chan int
}

func newControlledFetcher() *controlledFetcher {
	return &controlledFetcher{started: make(chan int, 64)}
}

func (f *controlledFetcher) fetch(ctx context.Context) (any, error) {
	ch := make(chan reply, 1)
	f.mu.Lock()
	f.calls = append(f.calls, ch)
	n := len(f.calls) - 1
	f.mu.Unlock()

	f.started <- n
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *controlledFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// waitStarted waits for call i to reach the fetcher.
func (f *controlledFetcher) waitStarted(t *testing.T, i int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if f.count() > i {
			return
		}
		select {
		case <-f.started:
		case <-deadline:
			t.Fatalf("fetch call %d never started", i)
		}
	}
}

func (f *controlledFetcher) respond(t *testing.T, i int, v any, err error) {
	t.Helper()
	f.waitStarted(t, i)
	f.mu.Lock()
	ch := f.calls[i]
	f.mu.Unlock()
	ch <- reply{v: v, err: err}
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func settled(c *Cache, key Key) func() bool {
	return func() bool {
		r, ok := c.Peek(key)
		return ok && !r.Fetching
	}
}

// recorder collects subscriber notifications.
type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) record(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) last() (Result, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return Result{}, 0
	}
	return r.results[len(r.results)-1], len(r.results)
}
