package scanner

import (
	"fmt"
	"sort"
	"sync"
	"time"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Tracker is the table of in-flight scans, keyed by normalized page.
type Tracker struct {
	mu       sync.Mutex
	inflight map[string]time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{inflight: make(map[string]time.Time)}
}

// Begin marks key as in flight. The returned release removes the entry and is
// safe to call more than once.
func (t *Tracker) Begin(key string) (release func(), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if since, busy := t.inflight[key]; busy {
		return nil, fmt.Errorf("%w: %s (started %s ago)", sharedErrors.ErrScanInProgress, key, time.Since(since).Round(time.Millisecond))
	}
	t.inflight[key] = time.Now()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.inflight, key)
			t.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is in flight.
func (t *Tracker) Busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inflight[key]
	return ok
}

// InFlight lists the keys currently scanning, sorted.
func (t *Tracker) InFlight() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.inflight))
	for k := range t.inflight {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
