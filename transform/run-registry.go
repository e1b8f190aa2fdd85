package transform

import (
	"sync"

	c "github.com/relloyd/empetl/constants"
)

// SafeRunRegistry wraps a map[runID]*DagRun with locking, via Load() and Store() methods.
// It keeps the most recent runs only.
type SafeRunRegistry struct {
	sync.RWMutex
	Internal map[string]*DagRun
	order    []string // run IDs, oldest first.
	capacity int
}

// NewSafeRunRegistry returns a registry holding at most capacity runs, or c.DefaultRunHistory if capacity <= 0.
func NewSafeRunRegistry(capacity int) *SafeRunRegistry {
	if capacity <= 0 {
		capacity = c.DefaultRunHistory
	}
	return &SafeRunRegistry{Internal: make(map[string]*DagRun), capacity: capacity}
}

func (t *SafeRunRegistry) Load(runID string) (r *DagRun, ok bool) {
	t.RLock()
	r, ok = t.Internal[runID]
	t.RUnlock()
	return
}

// Store saves the run and evicts the oldest runs beyond capacity.
func (t *SafeRunRegistry) Store(r *DagRun) {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.Internal[r.RunID()]; !ok {
		t.order = append(t.order, r.RunID())
	}
	t.Internal[r.RunID()] = r
	for len(t.order) > t.capacity {
		delete(t.Internal, t.order[0])
		t.order = t.order[1:]
	}
}

func (t *SafeRunRegistry) Delete(runID string) {
	t.Lock()
	defer t.Unlock()
	delete(t.Internal, runID)
	for idx, id := range t.order {
		if id == runID {
			t.order = append(t.order[:idx], t.order[idx+1:]...)
			break
		}
	}
}

// List returns the statuses of saved runs, newest first.
func (t *SafeRunRegistry) List() []RunStatus {
	t.RLock()
	defer t.RUnlock()
	retval := make([]RunStatus, 0, len(t.order))
	for idx := len(t.order) - 1; idx >= 0; idx-- {
		retval = append(retval, t.Internal[t.order[idx]].Status())
	}
	return retval
}

func (t *SafeRunRegistry) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.order)
}
