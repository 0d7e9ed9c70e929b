package installer

import "sync"

// driveLocks serializes mutating operations per drive root. The registry
// file on a medium has exactly one writer at a time; operations against
// different drives proceed in parallel.
type driveLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDriveLocks() *driveLocks {
	return &driveLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for root and returns its release function.
func (d *driveLocks) acquire(root string) func() {
	d.mu.Lock()
	l, ok := d.locks[root]
	if !ok {
		l = &sync.Mutex{}
		d.locks[root] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}
