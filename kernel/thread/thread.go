// Package thread is the kernel's thread core: the TCB type, its lifecycle
// operations (create/block/unblock/yield/exit/sleep), and the
// synchronization primitives (Semaphore, Lock, CondVar) and priority
// donation walk that operate directly on TCB fields. Pintos keeps these in
// one directory (threads/thread.c and threads/synch.c share the same
// struct thread); this package mirrors that by keeping them in one Go
// package, avoiding an import cycle a split would otherwise force (a Lock
// needs a holder *Thread; a Thread needs a *Lock back-reference for
// donation).
package thread

import (
	"github.com/dijkstracula/pintos-go/fixedpoint"
	"github.com/dijkstracula/pintos-go/internal/dlist"
)

// Priority bounds and defaults.
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63

	NiceMin = -20
	NiceMax = 20

	// TimeSlice is the interval, in ticks, at which MLFQS recomputes
	// priorities.
	TimeSlice = 4
	// TimerFreq is the number of ticks per simulated second.
	TimerFreq = 100

	// IdleID is the reserved thread ID of the per-core idle thread.
	IdleID = 0
	// InvalidID is returned by Create on resource exhaustion.
	InvalidID = -1
)

// State is a TCB's position in the lifecycle state machine.
type State int

const (
	StateRunning State = iota
	StateReady
	StateBlocked
	StateDying
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateBlocked:
		return "blocked"
	case StateDying:
		return "dying"
	default:
		return "unknown"
	}
}

// Thread is a kernel thread control block.
//
// Every exported field below is part of the kernel's internal
// representation, not a public API surface: per this package's locking
// discipline (the analogue of Pintos requiring interrupts off around
// struct thread field access), a field must only be read or written while
// the owning Core's interrupt gate is disabled. kernel/thread/policy
// implementations are trusted to uphold this, since Core always calls them
// with the gate already held. Code outside kernel/thread and
// kernel/thread/policy should go through Core's and the synchronization
// primitives' methods instead of touching a Thread directly.
type Thread struct {
	ID       int
	Name     string
	ParentID int

	BasePriority    int
	CurrentPriority int
	State           State

	// Priority-donation bookkeeping (meaningful only under a donating
	// policy, i.e. PS). HeldLocks is ordered by each lock's
	// TopWaiterPriority, descending. A held lock's waiters can change after
	// it was inserted, so readers re-sort it (SortAll) before taking
	// Front(), the lock contributing this thread's current donation (if
	// any).
	HeldLocks      *dlist.List[*Lock]
	WaitingLock    *Lock
	WaitingSema    *Semaphore
	WaitingCondVar *CondVar

	// MLFQS bookkeeping (meaningful only under MLFQS).
	Nice      int
	RecentCPU fixedpoint.FP

	// WakeTick is the tick at which a sleeping thread should be woken;
	// meaningful only while State == StateBlocked via Core.SleepUntil.
	WakeTick uint64

	// QueueElem is this thread's membership handle in whichever single
	// queue it currently belongs to (the active policy's ready
	// structure, a semaphore's waiter list, or the sleep queue) — a
	// thread belongs to at most one such queue at a time. SchedIndex is
	// reserved for the active policy's own bookkeeping (MLFQS uses it to
	// remember which of its 64 priority-level queues holds QueueElem).
	QueueElem  *dlist.Elem[*Thread]
	SchedIndex int

	// Arrival is a monotonically increasing sequence number re-stamped
	// every time this thread enters an ordered wait/ready structure
	// (the active policy's ready queue, a semaphore's waiter list), used
	// to break priority ties FIFO by how long a thread has been waiting
	// at its current spot — not by when it was first created.
	Arrival uint64

	core  *Core
	token chan struct{}
}

// Core returns the Core this thread belongs to.
func (t *Thread) Core() *Core { return t.core }
