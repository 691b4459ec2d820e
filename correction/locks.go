package correction

import "sync"

// applyGuard serializes apply calls per transcript id. A second apply for
// the same transcript while one is in flight is rejected, not queued; the
// caller gets CONFLICT and retries after reload.
type applyGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newApplyGuard() *applyGuard {
	return &applyGuard{busy: make(map[string]struct{})}
}

// tryAcquire claims the id. It reports false when an apply is already in
// flight for that id.
func (g *applyGuard) tryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.busy[id]; taken {
		return false
	}
	g.busy[id] = struct{}{}
	return true
}

func (g *applyGuard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, id)
}
