package backupmgr

import (
	"sort"
	"sync"
	"time"
)

// pendingChanges maps a save path to the time of its last observed change.
// It is written by the notification side and drained by the poll loop.
type pendingChanges struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newPendingChanges() *pendingChanges {
	return &pendingChanges{entries: make(map[string]time.Time)}
}

// touch records a change for path, replacing any earlier timestamp.
func (p *pendingChanges) touch(path string, at time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[path] = at
	return len(p.entries)
}

// drainSettled removes and returns every path whose last change is at least grace old.
// Paths come back sorted so callbacks run in a stable order.
func (p *pendingChanges) drainSettled(now time.Time, grace time.Duration) ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var settled []string
	for path, at := range p.entries {
		if now.Sub(at) >= grace {
			settled = append(settled, path)
		}
	}
	for _, path := range settled {
		delete(p.entries, path)
	}
	sort.Strings(settled)
	return settled, len(p.entries)
}

func (p *pendingChanges) lastChange(path string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.entries[path]
	return at, ok
}

func (p *pendingChanges) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
