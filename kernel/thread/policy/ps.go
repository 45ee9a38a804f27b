// Package policy provides the two scheduling policies: PS (a strict
// priority scheduler with nested priority donation) and MLFQS (a
// multilevel feedback queue driven by niceness and recent CPU usage).
// Both implement thread.Policy and are installed into a thread.Core at
// construction time.
package policy

import (
	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/kernel/thread"
)

// PS is the priority scheduler: the single ready queue is kept sorted by
// CurrentPriority (descending, FIFO among ties), and Lock participates in
// priority donation.
type PS struct {
	ready *dlist.List[*thread.Thread]
}

func psLess(a, b *thread.Thread) bool {
	if a.CurrentPriority != b.CurrentPriority {
		return a.CurrentPriority > b.CurrentPriority
	}
	return a.Arrival < b.Arrival
}

// NewPS constructs a PS policy.
func NewPS() *PS {
	return &PS{ready: dlist.New(psLess)}
}

func (p *PS) Name() string            { return "ps" }
func (p *PS) SupportsDonation() bool  { return true }

func (p *PS) Init(t, parent *thread.Thread) {
	// BasePriority/CurrentPriority are already set by Core.Create /
	// Core.NewCore from the requested base priority; PS has nothing
	// further to derive.
}

func (p *PS) MakeReady(t *thread.Thread) {
	t.State = thread.StateReady
	t.QueueElem = p.ready.InsertSorted(t)
}

func (p *PS) PickNext() *thread.Thread {
	v, ok := p.ready.PopFront()
	if !ok {
		return nil
	}
	v.QueueElem = nil
	return v
}

func (p *PS) Requeue(t *thread.Thread) {
	if t.QueueElem == nil {
		return
	}
	p.ready.Resort(t.QueueElem)
}

func (p *PS) TopReadyPriority() (int, bool) {
	e, ok := p.ready.Front()
	if !ok {
		return 0, false
	}
	return e.Value.CurrentPriority, true
}

func (p *PS) ReadyCount() int { return p.ready.Len() }

// Tick is a no-op under PS: a thread's priority only changes via an
// explicit SetPriority call or a donation, neither of which is
// tick-driven. The generic preemption check (is a higher-priority thread
// now ready than whatever's running) lives in thread.Core.Tick itself,
// not here, since it applies identically to both policies.
func (p *PS) Tick(c *thread.Core, running *thread.Thread, ticks uint64, allThreads []*thread.Thread) {
}

func (p *PS) SetPriority(t *thread.Thread, base int) {
	t.BasePriority = base
	donor := thread.PriMin
	t.HeldLocks.SortAll()
	if front, ok := t.HeldLocks.Front(); ok {
		if tw := front.Value.TopWaiterPriority(); tw > donor {
			donor = tw
		}
	}
	newCur := base
	if donor > newCur {
		newCur = donor
	}
	if newCur != t.CurrentPriority {
		t.CurrentPriority = newCur
		if t.State == thread.StateReady {
			p.Requeue(t)
		}
	}
}

// Renice is a no-op under PS: niceness never affects priority here.
func (p *PS) Renice(t *thread.Thread) {}
