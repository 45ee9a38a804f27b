package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dijkstracula/pintos-go/fixedpoint"
	"github.com/dijkstracula/pintos-go/kernel/thread"
	"github.com/dijkstracula/pintos-go/kernel/thread/policy"
)

func newMLFQSThread(id int) *thread.Thread {
	return &thread.Thread{ID: id, State: thread.StateReady}
}

// TestMLFQSInitDerivesPriorityFromNiceAndRecentCPU exercises the
// priority = PRI_MAX - (recent_cpu/4) - (nice*2) formula directly, the
// scenario the Pintos MLFQS assignment walks by hand: nice 0, recent_cpu
// 0 gives exactly PRI_MAX.
func TestMLFQSInitDerivesPriorityFromNiceAndRecentCPU(t *testing.T) {
	m := policy.NewMLFQS()
	child := newMLFQSThread(1)
	m.Init(child, nil)

	assert.Equal(t, thread.PriMax, child.BasePriority)
	assert.Equal(t, thread.PriMax, child.CurrentPriority)
	assert.Equal(t, 0, child.Nice)
	assert.Equal(t, fixedpoint.Zero, child.RecentCPU)
}

func TestMLFQSInitInheritsNiceAndRecentCPUFromParent(t *testing.T) {
	m := policy.NewMLFQS()
	parent := newMLFQSThread(1)
	parent.Nice = 5
	parent.RecentCPU = fixedpoint.FromInt(10)

	child := newMLFQSThread(2)
	m.Init(child, parent)

	assert.Equal(t, 5, child.Nice)
	assert.Equal(t, fixedpoint.FromInt(10), child.RecentCPU)
}

// TestMLFQSHigherNiceYieldsLowerPriority checks the formula's monotonic
// relationship with niceness in isolation from recent_cpu.
func TestMLFQSHigherNiceYieldsLowerPriority(t *testing.T) {
	m := policy.NewMLFQS()
	nice0 := newMLFQSThread(1)
	m.Init(nice0, nil)

	parent := newMLFQSThread(3)
	parent.Nice = 10
	nice10 := newMLFQSThread(2)
	m.Init(nice10, parent)

	assert.Less(t, nice10.CurrentPriority, nice0.CurrentPriority)
}

func TestMLFQSPriorityClampsToBounds(t *testing.T) {
	m := policy.NewMLFQS()
	parent := newMLFQSThread(2)
	parent.Nice = thread.NiceMax
	parent.RecentCPU = fixedpoint.FromInt(1000)
	tt := newMLFQSThread(1)
	m.Init(tt, parent)
	assert.Equal(t, thread.PriMin, tt.CurrentPriority)
}

func TestMLFQSPickNextPrefersHigherQueue(t *testing.T) {
	m := policy.NewMLFQS()
	low := newMLFQSThread(1)
	low.CurrentPriority = 10
	high := newMLFQSThread(2)
	high.CurrentPriority = 20

	m.MakeReady(low)
	m.MakeReady(high)

	assert.Same(t, high, m.PickNext())
	assert.Same(t, low, m.PickNext())
	assert.Nil(t, m.PickNext())
}

func TestMLFQSSameQueueIsFIFO(t *testing.T) {
	m := policy.NewMLFQS()
	a := newMLFQSThread(1)
	a.CurrentPriority = 15
	b := newMLFQSThread(2)
	b.CurrentPriority = 15

	m.MakeReady(a)
	m.MakeReady(b)

	assert.Same(t, a, m.PickNext())
	assert.Same(t, b, m.PickNext())
}

func TestMLFQSReniceDemotesAcrossQueues(t *testing.T) {
	m := policy.NewMLFQS()
	a := newMLFQSThread(1)
	m.Init(a, nil) // nice 0 -> CurrentPriority == PriMax
	m.MakeReady(a)

	other := newMLFQSThread(2)
	other.CurrentPriority = thread.PriMax
	m.MakeReady(other)

	a.Nice = thread.NiceMax
	m.Renice(a)
	assert.Less(t, a.CurrentPriority, thread.PriMax)

	// other, unchanged, should now be picked first.
	assert.Same(t, other, m.PickNext())
	assert.Same(t, a, m.PickNext())
}

func TestMLFQSSetPriorityIsIgnored(t *testing.T) {
	m := policy.NewMLFQS()
	a := newMLFQSThread(1)
	m.Init(a, nil)
	before := a.CurrentPriority
	m.SetPriority(a, thread.PriMin)
	assert.Equal(t, before, a.CurrentPriority, "MLFQS priority is derived, not settable")
}

// TestMLFQSTickIncrementsRecentCPUForRunningThread checks the once-per-tick
// recent_cpu bump for whichever thread is currently running.
func TestMLFQSTickIncrementsRecentCPUForRunningThread(t *testing.T) {
	m := policy.NewMLFQS()
	running := newMLFQSThread(1)
	running.RecentCPU = fixedpoint.Zero

	// Ticks not aligned to TimeSlice/TimerFreq boundaries: only the
	// per-tick recent_cpu increment should fire.
	m.Tick(nil, running, 1, []*thread.Thread{running})
	assert.Equal(t, fixedpoint.FromInt(1), running.RecentCPU)

	m.Tick(nil, running, 2, []*thread.Thread{running})
	assert.Equal(t, fixedpoint.FromInt(2), running.RecentCPU)
}

// TestMLFQSTickRecomputesPriorityEveryTimeSlice checks that a priority
// recompute pass fires on a TimeSlice-aligned tick even when recent_cpu
// hasn't changed since init, by giving the thread a nonzero nice so its
// derived priority differs from the sentinel -1 started below.
func TestMLFQSTickRecomputesPriorityEveryTimeSlice(t *testing.T) {
	m := policy.NewMLFQS()
	a := newMLFQSThread(1)
	a.Nice = 4
	a.RecentCPU = fixedpoint.Zero
	a.CurrentPriority = -1 // sentinel: definitely not the formula's result

	all := []*thread.Thread{a}
	m.Tick(nil, nil, thread.TimeSlice, all)

	assert.Equal(t, thread.PriMax-8, a.CurrentPriority)
}

// TestMLFQSTickRecomputesLoadAvgEveryTimerFreq checks the once-per-second
// load_avg recurrence: load_avg = (59/60)*load_avg + (1/60)*ready_threads.
// Starting from load_avg == 0 with one thread running and none ready,
// after one TimerFreq-aligned tick load_avg should equal 1/60.
func TestMLFQSTickRecomputesLoadAvgEveryTimerFreq(t *testing.T) {
	m := policy.NewMLFQS()
	running := newMLFQSThread(1)
	running.RecentCPU = fixedpoint.Zero

	m.Tick(nil, running, thread.TimerFreq, []*thread.Thread{running})

	want := fixedpoint.FromInt(1).Div(fixedpoint.FromInt(60))
	got, ok := m.LoadAvg()
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

// TestMLFQSPriorityTruncatesRecentCPUQuotient checks that the priority
// formula truncates recent_cpu/4 rather than rounding the whole
// expression: recent_cpu 7 gives recent_cpu/4 == 1.75, truncating to 1
// for a priority of 62. Rounding the whole expression (63 - 1.75 = 61.25)
// instead would give 61.
func TestMLFQSPriorityTruncatesRecentCPUQuotient(t *testing.T) {
	m := policy.NewMLFQS()
	a := newMLFQSThread(1)
	a.Nice = 0
	a.RecentCPU = fixedpoint.FromInt(7)
	a.CurrentPriority = -1 // sentinel: force Renice to apply the computed value
	m.Renice(a)
	assert.Equal(t, thread.PriMax-1, a.CurrentPriority)
}
