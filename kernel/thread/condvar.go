package thread

import (
	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/internal/kassert"
)

// condWaiter is one thread's private binary semaphore registration on a
// CondVar: Mesa-style condition variables hand each waiter its own
// semaphore (initially 0) rather than parking the waiter directly on
// shared state, so Signal can wake exactly one of them unambiguously.
type condWaiter struct {
	sem    *Semaphore
	thread *Thread
}

// CondVar is a Mesa-style condition variable: Wait releases the
// associated lock and blocks until signaled, then reacquires the lock
// before returning. As with any Mesa-semantics condvar, a woken waiter
// must re-check its predicate in a loop — a signal only means "something
// changed," not "your condition now holds."
type CondVar struct {
	core    *Core
	waiters *dlist.List[*condWaiter]
}

func condWaiterLess(a, b *condWaiter) bool {
	ap, bp := a.sem.TopWaiterPriority(), b.sem.TopWaiterPriority()
	return ap > bp
}

// NewCondVar constructs an unsignaled CondVar.
func NewCondVar(c *Core) *CondVar {
	return &CondVar{core: c, waiters: dlist.New(condWaiterLess)}
}

// Wait atomically releases lock and blocks the current thread until
// Signal or Broadcast wakes it, then reacquires lock before returning.
// The caller must hold lock, and every Signal/Broadcast on this CondVar
// must be issued while holding the same lock.
func (cv *CondVar) Wait(lock *Lock) {
	c := cv.core
	kassert.Require(!c.gate.Context(), "cond_wait: called from interrupt context")
	kassert.Require(lock.HeldByCurrent(), "cond_wait: called without holding the associated lock")

	t := c.current
	w := &condWaiter{sem: NewSemaphore(c, 0), thread: t}

	old := c.gate.Disable()
	cv.waiters.PushBack(w)
	c.gate.SetLevel(old)

	lock.Release()

	old = c.gate.Disable()
	t.WaitingCondVar = cv
	w.sem.downLocked()
	t.WaitingCondVar = nil
	c.gate.SetLevel(old)

	lock.Acquire()
}

// Signal wakes the highest-priority waiter, if any. The caller must hold
// lock.
func (cv *CondVar) Signal(lock *Lock) {
	c := cv.core
	old := c.gate.Disable()
	kassert.Require(lock.Holder == c.current, "cond_signal: called without holding the associated lock")
	cv.waiters.SortAll()
	w, ok := cv.waiters.PopFront()
	c.gate.SetLevel(old)
	if ok {
		w.sem.Up()
	}
}

// Broadcast wakes every waiter. The caller must hold lock.
func (cv *CondVar) Broadcast(lock *Lock) {
	c := cv.core
	old := c.gate.Disable()
	kassert.Require(lock.Holder == c.current, "cond_broadcast: called without holding the associated lock")
	cv.waiters.SortAll()
	var woken []*condWaiter
	for {
		w, ok := cv.waiters.PopFront()
		if !ok {
			break
		}
		woken = append(woken, w)
	}
	c.gate.SetLevel(old)
	for _, w := range woken {
		w.sem.Up()
	}
}

// resortWaiters re-sorts the waiter list by each waiter's current
// priority. Called by the donation walk when a condvar waiter's priority
// changes. Must be called with the gate already held.
func (cv *CondVar) resortWaiters() {
	cv.waiters.SortAll()
}
