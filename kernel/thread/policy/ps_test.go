package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/kernel/thread"
	"github.com/dijkstracula/pintos-go/kernel/thread/policy"
)

func emptyHeldLocks() *dlist.List[*thread.Lock] {
	return dlist.New(func(a, b *thread.Lock) bool { return false })
}

func newReadyThread(id, pri int, arrival uint64) *thread.Thread {
	return &thread.Thread{
		ID:              id,
		BasePriority:    pri,
		CurrentPriority: pri,
		State:           thread.StateReady,
		HeldLocks:       emptyHeldLocks(),
		Arrival:         arrival,
	}
}

func TestPSPickNextReturnsHighestPriority(t *testing.T) {
	p := policy.NewPS()
	low := newReadyThread(1, 10, 1)
	high := newReadyThread(2, 20, 2)
	p.MakeReady(low)
	p.MakeReady(high)

	assert.Same(t, high, p.PickNext())
	assert.Same(t, low, p.PickNext())
	assert.Nil(t, p.PickNext())
}

func TestPSSamePriorityIsFIFO(t *testing.T) {
	p := policy.NewPS()
	a := newReadyThread(1, 10, 1)
	b := newReadyThread(2, 10, 2)
	p.MakeReady(a)
	p.MakeReady(b)

	assert.Same(t, a, p.PickNext())
	assert.Same(t, b, p.PickNext())
}

func TestPSTopReadyPriorityEmpty(t *testing.T) {
	p := policy.NewPS()
	_, ok := p.TopReadyPriority()
	assert.False(t, ok)
}

func TestPSSetPriorityRequeuesWhenReady(t *testing.T) {
	p := policy.NewPS()
	a := newReadyThread(1, 10, 1)
	b := newReadyThread(2, 20, 2)
	p.MakeReady(a)
	p.MakeReady(b)

	p.SetPriority(a, 30)
	assert.Equal(t, 30, a.CurrentPriority)

	top, ok := p.TopReadyPriority()
	assert.True(t, ok)
	assert.Equal(t, 30, top)
	assert.Same(t, a, p.PickNext())
}

func TestPSSetPriorityNoHeldLocksFollowsBase(t *testing.T) {
	p := policy.NewPS()
	a := newReadyThread(1, 10, 1)
	p.MakeReady(a)

	p.SetPriority(a, 2)
	assert.Equal(t, 2, a.BasePriority)
	assert.Equal(t, 2, a.CurrentPriority, "with no held locks, current priority tracks base directly")
}

func TestPSTickIsNoop(t *testing.T) {
	p := policy.NewPS()
	a := newReadyThread(1, 10, 1)
	p.MakeReady(a)
	p.Tick(nil, nil, 4, nil)
	top, ok := p.TopReadyPriority()
	assert.True(t, ok)
	assert.Equal(t, 10, top)
}
