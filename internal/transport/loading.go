package transport

import (
	"net/http"
	"sync"
)

// Tracker reference-counts in-flight requests for UI loading indication. The
// flag is true iff the pending counter is nonzero; a plain boolean would be
// cleared prematurely by whichever concurrent request finished first.
type Tracker struct {
	mu      sync.Mutex
	pending int
	subs    map[int]func(bool)
	nextSub int
}

// NewTracker constructs an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[int]func(bool))}
}

// Loading reports whether any tracked request is in flight.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending > 0
}

// Pending returns the current in-flight count.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Subscribe registers a callback for loading flag transitions (0→1 and 1→0
// only, not every counter change). Returns a cancel function.
func (t *Tracker) Subscribe(fn func(loading bool)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

func (t *Tracker) begin() {
	t.notifyOnTransition(func() { t.pending++ }, 1)
	requestsInFlight.Inc()
}

func (t *Tracker) end() {
	t.notifyOnTransition(func() { t.pending-- }, 0)
	requestsInFlight.Dec()
}

func (t *Tracker) notifyOnTransition(mutate func(), edge int) {
	t.mu.Lock()
	mutate()
	fire := t.pending == edge
	var subs []func(bool)
	if fire {
		subs = make([]func(bool), 0, len(t.subs))
		for _, fn := range t.subs {
			subs = append(subs, fn)
		}
	}
	loading := t.pending > 0
	t.mu.Unlock()

	for _, fn := range subs {
		fn(loading)
	}
}

// LoadingIndicator tracks every request except the silent skip-list (token
// refresh, logout). The decrement is deferred so error paths release too.
func LoadingIndicator(t *Tracker) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if skipsLoading(req.URL.Path) {
				return next.RoundTrip(req)
			}
			t.begin()
			defer t.end()
			return next.RoundTrip(req)
		})
	}
}
