package ledger

import "sync"

// keyedLocks serializes mutations per record. Two concurrent repayments on
// the same loan, or two approvals of the same contribution, take the same
// lock; unrelated records proceed independently. Locks are never freed;
// the map is bounded by the number of records ever touched in-process.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
