package thread

import (
	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/internal/kassert"
)

// Lock is a binary semaphore with ownership tracking and, under a
// donating policy (PS), priority-donation bookkeeping: the current holder
// of a contended lock runs at at least the priority of its
// highest-priority waiter, transitively through any chain of locks that
// waiter is itself blocked behind.
type Lock struct {
	core      *Core
	sem       *Semaphore
	Holder    *Thread
	QueueElem *dlist.Elem[*Lock]
}

// NewLock constructs an unheld Lock.
func NewLock(c *Core) *Lock {
	return &Lock{core: c, sem: NewSemaphore(c, 1)}
}

// HeldByCurrent reports whether the currently running thread holds l.
func (l *Lock) HeldByCurrent() bool {
	old := l.core.gate.Disable()
	ok := l.Holder == l.core.current
	l.core.gate.SetLevel(old)
	return ok
}

// TopWaiterPriority returns the priority of l's highest-priority waiter,
// or PriMin if l is uncontended.
func (l *Lock) TopWaiterPriority() int {
	return l.sem.TopWaiterPriority()
}

// Acquire blocks until l is free, then takes it. Under PS, this first
// walks and applies the priority-donation chain so that the donation
// takes effect atomically with the requester's enqueue — before it
// blocks, per the ordering guarantee the donation protocol depends on.
func (l *Lock) Acquire() {
	c := l.core
	kassert.Require(!c.gate.Context(), "lock_acquire: called from interrupt context")
	old := c.gate.Disable()
	t := c.current
	kassert.Require(l.Holder != t, "lock_acquire: thread %d already holds this lock", t.ID)

	t.WaitingLock = l
	if c.policy.SupportsDonation() {
		donate(c, l)
	}
	l.sem.downLocked()
	t.WaitingLock = nil

	l.Holder = t
	if c.policy.SupportsDonation() {
		l.QueueElem = t.HeldLocks.InsertSorted(l)
	}
	c.gate.SetLevel(old)
}

// TryAcquire is the non-blocking acquire: it never donates (there is
// nothing to donate to — it either succeeds immediately or fails) and so
// is interrupt-handler-safe, unlike Acquire.
func (l *Lock) TryAcquire() bool {
	c := l.core
	old := c.gate.Disable()
	t := c.current
	kassert.Require(l.Holder != t, "lock_try_acquire: thread %d already holds this lock", t.ID)
	ok := l.sem.value > 0
	if ok {
		l.sem.value--
		l.Holder = t
		if c.policy.SupportsDonation() {
			l.QueueElem = t.HeldLocks.InsertSorted(l)
		}
	}
	c.gate.SetLevel(old)
	return ok
}

// Release gives up l. Under PS, the releasing thread's priority drops
// back to the maximum of its base priority and any donation still owed it
// by a different held lock, then the highest-priority waiter (if any) is
// woken.
func (l *Lock) Release() {
	c := l.core
	old := c.gate.Disable()
	t := c.current
	kassert.Require(l.Holder == t, "lock_release: thread %d does not hold this lock", t.ID)

	if c.policy.SupportsDonation() {
		t.HeldLocks.Remove(l.QueueElem)
		l.QueueElem = nil
		if t.HeldLocks.Empty() {
			t.CurrentPriority = t.BasePriority
		} else {
			t.HeldLocks.SortAll()
			front, _ := t.HeldLocks.Front()
			donor := front.Value.TopWaiterPriority()
			if donor > t.BasePriority {
				t.CurrentPriority = donor
			} else {
				t.CurrentPriority = t.BasePriority
			}
		}
	}

	l.Holder = nil
	shouldYield := l.sem.upLocked()
	if shouldYield && c.gate.Context() {
		c.gate.RequestYieldOnReturn()
		shouldYield = false
	}
	c.gate.SetLevel(old)
	if shouldYield {
		c.Yield()
	}
}
