package ioengine

import (
	"context"
	"sync"
)

// admission is a per-kind concurrency gate: it bounds in-flight work to
// capacity and, once waiters queue up, hands freed slots to paths in
// round-robin order so one busy path cannot starve requests for another —
// the per-path fairness a plain counting semaphore cannot express. Adapted
// from the per-host waiter map of a connection pool, generalized from one
// queue per host to one queue per path.
type admission struct {
	mu       sync.Mutex
	capacity int64
	inUse    int64
	closed   bool

	order   []string // paths with at least one waiter, in round-robin order
	cursor  int
	waiters map[string][]chan struct{}
}

// newAdmission returns an admission gate allowing capacity concurrent
// holders. capacity <= 0 means unlimited.
func newAdmission(capacity int64) *admission {
	return &admission{capacity: capacity, waiters: make(map[string][]chan struct{})}
}

// acquire blocks until a slot is free for path or ctx is done, returning a
// release function on success.
func (a *admission) acquire(ctx context.Context, path string) (func(), error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrTimeout
	}
	if a.capacity <= 0 || a.inUse < a.capacity {
		a.inUse++
		a.mu.Unlock()
		return a.release, nil
	}
	waiter := make(chan struct{}, 1)
	a.enqueueLocked(path, waiter)
	a.mu.Unlock()

	select {
	case _, ok := <-waiter:
		if !ok {
			return nil, ErrTimeout
		}
		return a.release, nil
	case <-ctx.Done():
		a.mu.Lock()
		a.removeWaiterLocked(path, waiter)
		a.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (a *admission) enqueueLocked(path string, waiter chan struct{}) {
	if _, ok := a.waiters[path]; !ok {
		a.order = append(a.order, path)
	}
	a.waiters[path] = append(a.waiters[path], waiter)
}

func (a *admission) removeWaiterLocked(path string, waiter chan struct{}) {
	ws := a.waiters[path]
	for i, w := range ws {
		if w == waiter {
			a.waiters[path] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(a.waiters[path]) == 0 {
		delete(a.waiters, path)
		a.removeFromOrderLocked(path)
	}
}

func (a *admission) removeFromOrderLocked(path string) {
	for i, p := range a.order {
		if p == path {
			a.order = append(a.order[:i], a.order[i+1:]...)
			if a.cursor > i {
				a.cursor--
			}
			break
		}
	}
}

// release frees one slot and, if any path is waiting, admits the next
// waiter in round-robin order.
func (a *admission) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inUse--
	a.admitNextLocked()
}

func (a *admission) admitNextLocked() {
	if len(a.order) == 0 {
		return
	}
	if a.cursor >= len(a.order) {
		a.cursor = 0
	}
	path := a.order[a.cursor]
	ws := a.waiters[path]
	waiter := ws[0]
	a.waiters[path] = ws[1:]
	if len(a.waiters[path]) == 0 {
		delete(a.waiters, path)
		a.order = append(a.order[:a.cursor], a.order[a.cursor+1:]...)
		if a.cursor >= len(a.order) {
			a.cursor = 0
		}
	} else {
		a.cursor = (a.cursor + 1) % len(a.order)
	}
	a.inUse++
	waiter <- struct{}{}
}

// closeAll releases every waiter with a closed channel, waking them to
// fail with ErrTimeout, and marks the gate closed so later acquire calls
// fail fast.
func (a *admission) closeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for _, ws := range a.waiters {
		for _, w := range ws {
			close(w)
		}
	}
	a.waiters = make(map[string][]chan struct{})
	a.order = nil
}
