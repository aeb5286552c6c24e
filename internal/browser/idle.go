package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idleTracker counts in-flight requests of one page from network events.
// The page is idle once no more than maxInflight requests have been pending
// for the whole quiet period.
type idleTracker struct {
	mu          sync.Mutex
	inflight    map[network.RequestID]struct{}
	maxInflight int
	quietSince  time.Time
	now         func() time.Time
}

func newIdleTracker(maxInflight int) *idleTracker {
	return &idleTracker{
		inflight:    make(map[network.RequestID]struct{}),
		maxInflight: maxInflight,
		quietSince:  time.Now(),
		now:         time.Now,
	}
}

// handle is registered with chromedp.ListenTarget.
func (t *idleTracker) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.start(e.RequestID)
	case *network.EventLoadingFinished:
		t.finish(e.RequestID)
	case *network.EventLoadingFailed:
		t.finish(e.RequestID)
	}
}

func (t *idleTracker) start(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Redirects reuse the request ID.
	t.inflight[id] = struct{}{}
}

func (t *idleTracker) finish(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	busy := len(t.inflight) > t.maxInflight
	delete(t.inflight, id)
	if busy && len(t.inflight) <= t.maxInflight {
		t.quietSince = t.now()
	}
}

// reset restarts the quiet period. It is called once navigation commits so
// that time spent on the main document does not count as quiet time.
func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quietSince = t.now()
}

// idleFor reports whether the page has been quiet for at least d.
func (t *idleTracker) idleFor(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > t.maxInflight {
		return false
	}
	return t.now().Sub(t.quietSince) >= d
}

// pending returns the number of in-flight requests.
func (t *idleTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// wait polls until the page has been quiet for the quiet period or ctx is done.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	if t.idleFor(quiet) {
		return nil
	}
	interval := quiet / 5
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.idleFor(quiet) {
				return nil
			}
		}
	}
}
