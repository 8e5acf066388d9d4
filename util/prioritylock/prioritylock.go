package prioritylock

import (
	"sync"
)

// Mutex is a lock with three priorities:
//   - High priority write lock: the highest priority.
//   - High priority read lock: may be held together with other read locks,
//     and is preferred over the low priority lock.
//   - Low priority write lock: waits until no high priority holder is
//     waiting or holding the lock.
//
// The tangle uses the high priority read lock for block attachment,
// propagation and white-flag confirmation, and the low priority lock for
// pruning, so pruning never starves the hot path.
type Mutex struct {
	dataMutex           sync.RWMutex
	lowPriorityMutex    sync.Mutex
	highPriorityWaiting *waitGroup
}

// New returns a new priority mutex.
func New() *Mutex {
	return &Mutex{
		highPriorityWaiting: newWaitGroup(),
	}
}

// LowPriorityLock acquires an exclusive low priority lock. It waits until
// every high priority holder or waiter is gone.
func (mtx *Mutex) LowPriorityLock() {
	mtx.lowPriorityMutex.Lock()
	mtx.highPriorityWaiting.wait()
	mtx.dataMutex.Lock()
}

// LowPriorityUnlock releases the low priority lock.
func (mtx *Mutex) LowPriorityUnlock() {
	mtx.dataMutex.Unlock()
	mtx.lowPriorityMutex.Unlock()
}

// HighPriorityWriteLock acquires an exclusive high priority lock.
func (mtx *Mutex) HighPriorityWriteLock() {
	mtx.highPriorityWaiting.add()
	mtx.dataMutex.Lock()
}

// HighPriorityWriteUnlock releases the high priority write lock.
func (mtx *Mutex) HighPriorityWriteUnlock() {
	mtx.dataMutex.Unlock()
	mtx.highPriorityWaiting.done()
}

// HighPriorityReadLock acquires a shared high priority lock.
func (mtx *Mutex) HighPriorityReadLock() {
	mtx.highPriorityWaiting.add()
	mtx.dataMutex.RLock()
}

// HighPriorityReadUnlock releases a shared high priority lock.
func (mtx *Mutex) HighPriorityReadUnlock() {
	mtx.highPriorityWaiting.done()
	mtx.dataMutex.RUnlock()
}
