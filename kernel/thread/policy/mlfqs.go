package policy

import (
	"fmt"

	"github.com/dijkstracula/pintos-go/fixedpoint"
	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/kernel/thread"
)

// MLFQS is the multilevel feedback queue: 64 FIFO run queues, one per
// priority level, and a priority formula driven entirely by niceness and
// recent CPU usage — never by explicit SetPriority or by donation.
type MLFQS struct {
	queues  [thread.PriMax + 1]*dlist.List[*thread.Thread]
	loadAvg fixedpoint.FP
}

// NewMLFQS constructs an MLFQS policy with load_avg starting at 0, as at
// boot.
func NewMLFQS() *MLFQS {
	m := &MLFQS{}
	for i := range m.queues {
		m.queues[i] = dlist.New(func(a, b *thread.Thread) bool { return false })
	}
	return m
}

func (m *MLFQS) Name() string           { return "mlfqs" }
func (m *MLFQS) SupportsDonation() bool { return false }

// LoadAvg returns the current system load average and true. The bool
// return matches thread.LoadAvgReporter so Core.Tick can distinguish
// "policy doesn't track one" (PS) from an actual value.
func (m *MLFQS) LoadAvg() (fixedpoint.FP, bool) { return m.loadAvg, true }

// computePriority implements priority = PRI_MAX - trunc(recent_cpu/4) -
// nice*2, clamped to [PRI_MIN, PRI_MAX]. recent_cpu/4 is truncated toward
// zero before the subtraction, not rounded — the formula's own recent_cpu
// term is the only part of the expression that carries a fraction, so
// truncating it first and then doing plain integer arithmetic matches the
// spec exactly, including cases where the fraction is >= 0.5.
func computePriority(nice int, recentCPU fixedpoint.FP) int {
	p := thread.PriMax - recentCPU.DivInt(4).Trunc() - nice*2
	if p < thread.PriMin {
		return thread.PriMin
	}
	if p > thread.PriMax {
		return thread.PriMax
	}
	return p
}

func (m *MLFQS) Init(t, parent *thread.Thread) {
	if parent != nil {
		t.Nice = parent.Nice
		t.RecentCPU = parent.RecentCPU
	} else {
		t.Nice = 0
		t.RecentCPU = fixedpoint.Zero
	}
	p := computePriority(t.Nice, t.RecentCPU)
	t.BasePriority = p
	t.CurrentPriority = p
}

func (m *MLFQS) MakeReady(t *thread.Thread) {
	t.State = thread.StateReady
	idx := clampIdx(t.CurrentPriority)
	t.SchedIndex = idx
	t.QueueElem = m.queues[idx].PushBack(t)
}

func (m *MLFQS) PickNext() *thread.Thread {
	for p := thread.PriMax; p >= thread.PriMin; p-- {
		if e, ok := m.queues[p].Front(); ok {
			v := e.Value
			m.queues[p].Remove(e)
			v.QueueElem = nil
			return v
		}
	}
	return nil
}

func (m *MLFQS) Requeue(t *thread.Thread) {
	if t.QueueElem == nil {
		return
	}
	m.queues[t.SchedIndex].Remove(t.QueueElem)
	t.QueueElem = nil
	idx := clampIdx(t.CurrentPriority)
	t.SchedIndex = idx
	t.QueueElem = m.queues[idx].PushBack(t)
}

func (m *MLFQS) TopReadyPriority() (int, bool) {
	for p := thread.PriMax; p >= thread.PriMin; p-- {
		if m.queues[p].Len() > 0 {
			return p, true
		}
	}
	return 0, false
}

func (m *MLFQS) ReadyCount() int {
	n := 0
	for _, q := range m.queues {
		n += q.Len()
	}
	return n
}

// SetPriority is ignored under MLFQS: priority is fully derived from
// niceness and recent CPU usage, never set directly.
func (m *MLFQS) SetPriority(t *thread.Thread, base int) {}

// Renice recomputes t's priority immediately from its new Nice value,
// repositioning it in its run queue if it is currently ready.
func (m *MLFQS) Renice(t *thread.Thread) {
	p := computePriority(t.Nice, t.RecentCPU)
	if p == t.CurrentPriority {
		return
	}
	t.CurrentPriority = p
	if t.State == thread.StateReady {
		m.Requeue(t)
	}
}

// Tick implements the MLFQS timer-driven recomputation: recent_cpu for
// the running thread increments every tick; every TimeSlice (4) ticks,
// every thread's priority is recomputed from its current nice/recent_cpu;
// every TimerFreq (100) ticks (once per simulated second), load_avg is
// recomputed from the ready-thread count and every thread's recent_cpu is
// recomputed from the new load_avg, followed by a priority recompute pass
// so the two always move together.
func (m *MLFQS) Tick(c *thread.Core, running *thread.Thread, ticks uint64, allThreads []*thread.Thread) {
	if running != nil {
		running.RecentCPU = running.RecentCPU.AddInt(1)
	}

	if ticks%thread.TimerFreq == 0 {
		readyThreads := m.recomputeLoadAvg(running)
		for _, t := range allThreads {
			t.RecentCPU = m.recalcRecentCPU(t)
		}
		if c != nil {
			c.Logger().MLFQSRecompute(fixedpointMilliString(m.loadAvg), readyThreads)
		}
	}

	if ticks%thread.TimeSlice == 0 {
		for _, t := range allThreads {
			m.recomputeOne(t)
		}
	}
}

// recomputeLoadAvg updates load_avg and returns the ready-thread count
// (including the running thread, if any) it was computed from, so Tick
// can log it without counting twice.
func (m *MLFQS) recomputeLoadAvg(running *thread.Thread) int {
	readyThreads := m.ReadyCount()
	if running != nil {
		readyThreads++
	}
	fiftyNineSixtieths := fixedpoint.FromInt(59).Div(fixedpoint.FromInt(60))
	oneSixtieth := fixedpoint.FromInt(1).Div(fixedpoint.FromInt(60))
	m.loadAvg = fiftyNineSixtieths.Mul(m.loadAvg).Add(oneSixtieth.Mul(fixedpoint.FromInt(readyThreads)))
	return readyThreads
}

func (m *MLFQS) recalcRecentCPU(t *thread.Thread) fixedpoint.FP {
	// recent_cpu = (2*load_avg)/(2*load_avg + 1) * recent_cpu + nice
	twiceLoad := m.loadAvg.MulInt(2)
	coeff := twiceLoad.Div(twiceLoad.AddInt(1))
	return coeff.Mul(t.RecentCPU).AddInt(t.Nice)
}

func (m *MLFQS) recomputeOne(t *thread.Thread) {
	p := computePriority(t.Nice, t.RecentCPU)
	if p == t.CurrentPriority {
		return
	}
	t.CurrentPriority = p
	if t.State == thread.StateReady {
		m.Requeue(t)
	}
}

// fixedpointMilliString formats x to three decimal places for logging,
// matching kmetrics's "x1000, rounded" gauge convention.
func fixedpointMilliString(x fixedpoint.FP) string {
	milli := x.MulInt(1000).Round()
	return fmt.Sprintf("%d.%03d", milli/1000, milli%1000)
}

func clampIdx(p int) int {
	if p < thread.PriMin {
		return thread.PriMin
	}
	if p > thread.PriMax {
		return thread.PriMax
	}
	return p
}
