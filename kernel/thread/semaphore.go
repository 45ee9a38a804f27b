package thread

import "github.com/dijkstracula/pintos-go/internal/kassert"

// Semaphore is a classic counting semaphore whose waiters are queued in
// priority order (highest CurrentPriority first, FIFO among ties), so that
// Up always wakes the waiter best entitled to run next rather than
// whoever happened to block first.
type Semaphore struct {
	core    *Core
	value   int
	waiters *waiterList
}

type waiterList = listOfThreads

// NewSemaphore constructs a semaphore with the given initial value.
func NewSemaphore(c *Core, value int) *Semaphore {
	kassert.Require(value >= 0, "sema_init: negative initial value %d", value)
	return &Semaphore{core: c, value: value, waiters: newListOfThreads()}
}

// Value returns the semaphore's current counter value.
func (s *Semaphore) Value() int {
	old := s.core.gate.Disable()
	v := s.value
	s.core.gate.SetLevel(old)
	return v
}

// TopWaiterPriority returns the priority of the highest-priority waiter,
// or PriMin if there are none.
func (s *Semaphore) TopWaiterPriority() int {
	if e, ok := s.waiters.Front(); ok {
		return e.Value.CurrentPriority
	}
	return PriMin
}

// Down performs P(): blocks until the counter is positive, then
// decrements it. Must not be called from interrupt context.
func (s *Semaphore) Down() {
	c := s.core
	kassert.Require(!c.gate.Context(), "sema_down: called from interrupt context")
	old := c.gate.Disable()
	t := c.current
	t.WaitingSema = s
	s.downLocked()
	t.WaitingSema = nil
	c.gate.SetLevel(old)
}

// downLocked performs P() assuming the gate is already held, and that the
// caller has already set the appropriate waiting-on back-reference (so
// that at most one of WaitingLock/WaitingSema/WaitingCondVar is ever set
// at a time — Lock.Acquire blocks through here directly, setting only
// WaitingLock, rather than through the public Down, which would also set
// WaitingSema).
func (s *Semaphore) downLocked() {
	c := s.core
	for s.value == 0 {
		t := c.current
		c.stamp(t)
		t.QueueElem = s.waiters.InsertSorted(t)
		c.schedule(StateBlocked)
	}
	s.value--
}

// TryDown is the non-blocking P(): it never queues and so is safe to call
// from interrupt context. Reports whether the decrement happened.
func (s *Semaphore) TryDown() bool {
	c := s.core
	old := c.gate.Disable()
	ok := s.value > 0
	if ok {
		s.value--
	}
	c.gate.SetLevel(old)
	return ok
}

// Up performs V(): wakes the highest-priority waiter if any, then
// increments the counter. If the woken thread now outranks the caller, Up
// yields to it (or, called from interrupt context, marks a deferred
// yield instead). Safe to call from interrupt context.
func (s *Semaphore) Up() {
	c := s.core
	old := c.gate.Disable()
	shouldYield := s.upLocked()
	if shouldYield && c.gate.Context() {
		c.gate.RequestYieldOnReturn()
		shouldYield = false
	}
	c.gate.SetLevel(old)
	if shouldYield {
		c.Yield()
	}
}

// upLocked performs V() assuming the gate is already held, returning
// whether the caller (if not itself in interrupt context) should yield to
// the thread it just woke.
func (s *Semaphore) upLocked() bool {
	c := s.core
	var woken *Thread
	if v, ok := s.waiters.PopFront(); ok {
		woken = v
		woken.QueueElem = nil
		c.makeReadyLocked(woken)
	}
	s.value++
	return woken != nil && woken.CurrentPriority > c.current.CurrentPriority
}
