package schedule

import "sync"

// Locks hands out one mutex per master. Every load-mutate-save cycle over a
// master's schedule record must run under that master's mutex; the record is
// rewritten whole on save, so unserialized writers lose updates.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewLocks creates an empty lock registry.
func NewLocks() *Locks {
	return &Locks{locks: make(map[int64]*sync.Mutex)}
}

// Get returns the mutex for a master, creating it on first use.
func (l *Locks) Get(masterID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[masterID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[masterID] = m
	}
	return m
}
