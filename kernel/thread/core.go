package thread

import (
	"github.com/pkg/errors"

	"github.com/dijkstracula/pintos-go/internal/dlist"
	"github.com/dijkstracula/pintos-go/internal/kassert"
	"github.com/dijkstracula/pintos-go/internal/klog"
	"github.com/dijkstracula/pintos-go/internal/kmetrics"
	"github.com/dijkstracula/pintos-go/kernel/intr"
)

// MaxThreads bounds the number of live TCBs a Core will track, standing in
// for the fixed page-allocator-backed stack pool real Pintos draws thread
// stacks from. Create reports ErrResourceExhausted once reached.
const MaxThreads = 4096

// ErrResourceExhausted is returned by Create when MaxThreads live threads
// already exist.
var ErrResourceExhausted = errors.New("thread_create: resource exhausted")

// Core is the scheduler: the live thread table, the currently running
// thread, the idle thread, the sleep queue, and the interrupt gate that
// serializes every mutation of all of the above. One Core models one
// (uniprocessor) CPU.
type Core struct {
	gate    *intr.Gate
	policy  Policy
	log     *klog.Logger
	metrics *kmetrics.Metrics

	threads map[int]*Thread
	current *Thread
	idle    *Thread

	nextTID  int
	arrival  uint64
	ticks    uint64
	pending  *Thread // dying thread awaiting reap by the next schedule
	sleepers *dlist.List[*Thread]
}

func byWakeTickAsc(a, b *Thread) bool { return a.WakeTick < b.WakeTick }

func lockByTopWaiterDesc(a, b *Lock) bool {
	ap, bp := a.TopWaiterPriority(), b.TopWaiterPriority()
	return ap > bp
}

// NewCore constructs a Core already running a bootstrap "main" thread (the
// calling goroutine becomes that thread) with the given policy installed.
// logger and metrics may be nil.
func NewCore(policy Policy, logger *klog.Logger, metrics *kmetrics.Metrics) *Core {
	if logger == nil {
		logger = klog.Nop()
	}
	c := &Core{
		gate:     intr.NewGate(),
		policy:   policy,
		log:      logger,
		metrics:  metrics,
		threads:  make(map[int]*Thread),
		sleepers: dlist.New(byWakeTickAsc),
	}

	idle := &Thread{
		ID:           IdleID,
		Name:         "idle",
		BasePriority: PriMin, CurrentPriority: PriMin,
		State:     StateReady,
		HeldLocks: dlist.New(lockByTopWaiterDesc),
		token:     make(chan struct{}, 1),
		core:      c,
	}
	c.idle = idle
	c.threads[idle.ID] = idle

	main := &Thread{
		ID:           1,
		Name:         "main",
		BasePriority: PriDefault, CurrentPriority: PriDefault,
		State:     StateRunning,
		HeldLocks: dlist.New(lockByTopWaiterDesc),
		token:     make(chan struct{}, 1),
		core:      c,
	}
	policy.Init(main, nil)
	c.threads[main.ID] = main
	c.current = main
	c.nextTID = 2

	go func() {
		<-idle.token
		for {
			c.Yield()
			<-idle.token
		}
	}()

	return c
}

// Current returns the currently running thread.
func (c *Core) Current() *Thread {
	old := c.gate.Disable()
	t := c.current
	c.gate.SetLevel(old)
	return t
}

// GetByID looks up a thread by ID, including threads that have since
// exited from the table's perspective only while not yet reaped.
func (c *Core) GetByID(id int) (*Thread, bool) {
	old := c.gate.Disable()
	t, ok := c.threads[id]
	c.gate.SetLevel(old)
	return t, ok
}

// AllThreads returns a snapshot of every live thread, in no particular
// order. Used by MLFQS's per-second recompute, which must touch every
// thread regardless of state.
func (c *Core) AllThreads() []*Thread {
	old := c.gate.Disable()
	ts := make([]*Thread, 0, len(c.threads))
	for _, t := range c.threads {
		if t != c.idle {
			ts = append(ts, t)
		}
	}
	c.gate.SetLevel(old)
	return ts
}

// Ticks returns the number of timer ticks since boot.
func (c *Core) Ticks() uint64 {
	old := c.gate.Disable()
	ts := c.ticks
	c.gate.SetLevel(old)
	return ts
}

// PolicyName returns the active scheduling policy's name.
func (c *Core) PolicyName() string { return c.policy.Name() }

// Logger returns the Core's event sink, so a Policy implementation (e.g.
// MLFQS's per-second recompute) can log through the same Logger Core
// itself uses, rather than needing one of its own threaded through its
// constructor.
func (c *Core) Logger() *klog.Logger { return c.log }

func (c *Core) nextArrival() uint64 {
	c.arrival++
	return c.arrival
}

// stamp re-seals t's FIFO tie-break sequence number. Called immediately
// before every insertion into an ordered wait/ready structure, so that
// two threads at the same priority are always ordered by how long each
// has been sitting at its current stop, not by when either was created.
func (c *Core) stamp(t *Thread) {
	t.Arrival = c.nextArrival()
}

func (c *Core) makeReadyLocked(t *Thread) {
	c.stamp(t)
	c.policy.MakeReady(t)
	c.log.ThreadStateChange(t.ID, "blocked", "ready")
}

// schedule is the context-switch engine. It must be called with the gate
// already disabled, and only by the currently-running thread's own
// goroutine (Core.Create's spawned goroutines, the idle goroutine that
// Core.NewCore starts, and NewCore's bootstrap "main" goroutine are the
// only ones that may become "current"). prev
// transitions to newState (its membership in the ready structure, if any,
// has already been set up by the caller — e.g. a semaphore waiter
// insertion — except for StateReady, which schedule inserts on the
// caller's behalf so that Yield needs no special-casing).
//
// On return, the gate is once again held by the calling goroutine exactly
// as it was when schedule was called, whether or not an actual switch
// occurred — mirroring that, in the original, code following
// thread_block()/schedule() resumes still "with interrupts off".
func (c *Core) schedule(newState State) {
	prev := c.current
	prev.State = newState

	if newState == StateReady && prev != c.idle {
		c.stamp(prev)
		c.policy.MakeReady(prev)
	}

	if c.pending != nil {
		reaped := c.pending
		c.pending = nil
		delete(c.threads, reaped.ID)
		c.log.ThreadReaped(reaped.ID, reaped.Name)
	}

	next := c.policy.PickNext()
	if next == nil {
		next = c.idle
	}
	next.State = StateRunning
	c.current = next
	if c.metrics != nil {
		c.metrics.ContextSwitches.Inc()
	}
	if newState == StateDying {
		c.pending = prev
	}

	if next == prev {
		return
	}

	c.gate.Release()
	next.token <- struct{}{}
	if newState == StateDying {
		return
	}
	<-prev.token
	c.gate.Reacquire()
}

// Create constructs a new thread running entry and makes it ready. It
// returns InvalidID, ErrResourceExhausted if MaxThreads threads already
// exist. If the new thread's priority (as set by the active policy's
// Init) outranks the creator's, Create yields to it immediately, matching
// thread_create's "yield if the new thread should run first" behavior.
func (c *Core) Create(name string, basePriority int, entry func()) (int, error) {
	old := c.gate.Disable()
	if len(c.threads) >= MaxThreads {
		c.gate.SetLevel(old)
		return InvalidID, ErrResourceExhausted
	}

	parent := c.current
	t := &Thread{
		ID:           c.nextTID,
		Name:         name,
		ParentID:     parent.ID,
		BasePriority: clamp(basePriority, PriMin, PriMax),
		State:        StateReady,
		HeldLocks:    dlist.New(lockByTopWaiterDesc),
		token:        make(chan struct{}, 1),
		core:         c,
	}
	t.CurrentPriority = t.BasePriority
	c.nextTID++

	c.policy.Init(t, parent)
	c.threads[t.ID] = t
	c.stamp(t)
	c.policy.MakeReady(t)
	if c.metrics != nil {
		c.metrics.ThreadsCreated.Inc()
	}
	c.log.ThreadCreated(t.ID, t.Name, t.CurrentPriority)

	creatorPriority := parent.CurrentPriority
	newPriority := t.CurrentPriority
	c.gate.SetLevel(old)

	go func() {
		<-t.token
		entry()
		c.Exit()
	}()

	if newPriority > creatorPriority {
		c.Yield()
	}
	return t.ID, nil
}

// Block marks the current thread StateBlocked and schedules another
// thread to run, not returning until some other thread calls Unblock on
// it. The caller must already have recorded why the thread is blocking
// (one of Thread.WaitingLock/WaitingSema/WaitingCondVar, or a sleep-queue
// entry) and inserted it into the appropriate wait structure before
// calling Block.
func (c *Core) Block() {
	kassert.Require(!c.gate.Context(), "thread_block: called from interrupt context")
	old := c.gate.Disable()
	c.schedule(StateBlocked)
	c.gate.SetLevel(old)
}

// Unblock makes a blocked thread ready again. It does not itself cause a
// context switch — the caller (a semaphore's Up, typically) decides
// whether a yield is warranted. Safe to call from interrupt context.
func (c *Core) Unblock(t *Thread) {
	old := c.gate.Disable()
	kassert.Require(t.State == StateBlocked, "thread_unblock: thread %d is not blocked", t.ID)
	c.makeReadyLocked(t)
	c.gate.SetLevel(old)
}

// Yield gives up the CPU, returning the current thread to the ready
// structure and scheduling another (possibly the same thread, if no other
// is ready).
func (c *Core) Yield() {
	kassert.Require(!c.gate.Context(), "thread_yield: called from interrupt context")
	old := c.gate.Disable()
	c.schedule(StateReady)
	c.gate.SetLevel(old)
}

// Cooperate consumes a pending deferred-yield request (set by Tick when a
// higher-priority thread became ready while this thread was running) and
// yields if one is pending. Long-running, kernel-call-free loops should
// call this periodically to remain preemptible in spirit: nothing else
// consumes the flag, and kernel/timer.Driver only calls Tick, which sets
// it.
func (c *Core) Cooperate() {
	if c.gate.ConsumeYieldOnReturn() {
		c.Yield()
	}
}

// Exit marks the current thread StateDying and never returns: the calling
// goroutine must end immediately afterward (Create's spawned goroutine
// calls Exit right after entry() returns, for exactly this reason).
func (c *Core) Exit() {
	old := c.gate.Disable()
	_ = old
	c.schedule(StateDying)
	// unreachable: schedule never returns to a dying thread's goroutine.
}

// SleepUntil blocks the current thread until Tick has advanced the clock
// to at least wakeTick. A wakeTick that has already passed returns
// immediately without blocking.
func (c *Core) SleepUntil(wakeTick uint64) {
	kassert.Require(!c.gate.Context(), "timer_sleep: called from interrupt context")
	old := c.gate.Disable()
	if wakeTick <= c.ticks {
		c.gate.SetLevel(old)
		return
	}
	t := c.current
	t.WakeTick = wakeTick
	t.QueueElem = c.sleepers.InsertSorted(t)
	c.schedule(StateBlocked)
	t.QueueElem = nil
	c.gate.SetLevel(old)
}

func (c *Core) wakeSleepersLocked() {
	for {
		e, ok := c.sleepers.Front()
		if !ok || e.Value.WakeTick > c.ticks {
			return
		}
		t := e.Value
		c.sleepers.Remove(e)
		t.QueueElem = nil
		c.makeReadyLocked(t)
	}
}

// Tick advances the clock by one tick, runs the active policy's per-tick
// bookkeeping, wakes any sleepers whose deadline has arrived, and — if a
// higher-priority thread is now ready than whatever is running — marks a
// deferred yield instead of yielding directly, since this runs in the
// simulated interrupt-handler context. Intended to be driven by
// kernel/timer.Driver.
func (c *Core) Tick() {
	exitHandler := c.gate.EnterHandler()
	defer exitHandler()

	old := c.gate.Disable()
	c.ticks++

	var running *Thread
	if c.current != c.idle {
		running = c.current
	}

	allThreads := make([]*Thread, 0, len(c.threads))
	for _, t := range c.threads {
		if t != c.idle {
			allThreads = append(allThreads, t)
		}
	}
	c.policy.Tick(c, running, c.ticks, allThreads)

	c.wakeSleepersLocked()

	if top, ok := c.policy.TopReadyPriority(); ok {
		cur := PriMin
		if running != nil {
			cur = running.CurrentPriority
		}
		if top > cur {
			c.gate.RequestYieldOnReturn()
		}
	}

	if c.metrics != nil {
		c.metrics.ReadyQueueLength.Set(float64(c.policy.ReadyCount()))
		if reporter, ok := c.policy.(LoadAvgReporter); ok {
			if loadAvg, ok := reporter.LoadAvg(); ok {
				c.metrics.LoadAvg.Set(float64(loadAvg.MulInt(1000).Round()))
			}
		}
	}

	c.gate.SetLevel(old)
}

// GetPriority returns the current (possibly donated) priority of the
// currently running thread.
func (c *Core) GetPriority() int {
	old := c.gate.Disable()
	p := c.current.CurrentPriority
	c.gate.SetLevel(old)
	return p
}

// SetPriority sets the current thread's base priority. Under PS this may
// be overridden by an active donation, and may trigger an immediate yield
// if a now-higher-priority thread is ready. Under MLFQS this call is
// ignored entirely, since priority there is fully nice/recent_cpu-derived.
func (c *Core) SetPriority(p int) {
	old := c.gate.Disable()
	t := c.current
	c.policy.SetPriority(t, clamp(p, PriMin, PriMax))
	yieldNeeded := false
	if top, ok := c.policy.TopReadyPriority(); ok && top > t.CurrentPriority {
		yieldNeeded = true
	}
	c.gate.SetLevel(old)
	if yieldNeeded {
		c.Yield()
	}
}

// GetNice returns the current thread's niceness.
func (c *Core) GetNice() int {
	old := c.gate.Disable()
	n := c.current.Nice
	c.gate.SetLevel(old)
	return n
}

// SetNice sets the current thread's niceness (MLFQS only; meaningless,
// but harmless, under PS) and recomputes its priority immediately,
// yielding if it no longer warrants the CPU.
func (c *Core) SetNice(n int) {
	old := c.gate.Disable()
	t := c.current
	t.Nice = clamp(n, NiceMin, NiceMax)
	c.policy.Renice(t)
	yieldNeeded := false
	if top, ok := c.policy.TopReadyPriority(); ok && top > t.CurrentPriority {
		yieldNeeded = true
	}
	c.gate.SetLevel(old)
	if yieldNeeded {
		c.Yield()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
