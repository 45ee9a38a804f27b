package thread

import "github.com/dijkstracula/pintos-go/fixedpoint"

// LoadAvgReporter is implemented by policies that track a system load
// average (MLFQS). PS does not, so Core.Tick checks for this via a type
// assertion instead of forcing every Policy to implement a meaningless
// LoadAvg.
type LoadAvgReporter interface {
	// LoadAvg returns the current system load average and true if this
	// policy tracks one at all.
	LoadAvg() (fixedpoint.FP, bool)
}

// Policy is the scheduling policy interface PS and MLFQS (in
// kernel/thread/policy) both implement. Core calls every method here with
// its interrupt gate already disabled; implementations must not call back
// into any Core or Thread method that itself disables the gate.
type Policy interface {
	// Name identifies the policy ("ps" or "mlfqs"), used for boot
	// logging and test assertions.
	Name() string

	// SupportsDonation reports whether Lock should run its donation
	// walk on acquire/release. PS: true. MLFQS: false — priority is
	// entirely nice/recent_cpu-derived and never donated.
	SupportsDonation() bool

	// Init sets policy-specific fields (priority under MLFQS,
	// nice/recent_cpu inheritance) on a newly constructed thread. parent
	// is nil only for the bootstrap "main" thread.
	Init(t, parent *Thread)

	// MakeReady transitions t to StateReady and inserts it into the
	// policy's ready structure.
	MakeReady(t *Thread)

	// PickNext removes and returns the highest-priority ready thread, or
	// nil if none are ready.
	PickNext() *Thread

	// Requeue repositions t within the ready structure after its
	// CurrentPriority changed while t was still ready. A no-op if t is
	// not currently in the ready structure.
	Requeue(t *Thread)

	// TopReadyPriority returns the priority of the highest-priority
	// ready thread, and whether any thread is ready at all.
	TopReadyPriority() (int, bool)

	// ReadyCount returns the number of threads currently ready.
	ReadyCount() int

	// Tick is called once per simulated timer tick for the currently
	// running thread (nil if the idle thread is running). Implementations
	// update their own per-tick/per-second state here (MLFQS's
	// recent_cpu increment, 4-tick priority recompute, and
	// TimerFreq-tick load_avg/global recompute); PS has nothing to do
	// here since its priorities only change via explicit calls. Called
	// with the gate already held: implementations must not call back into
	// any Core method that itself acquires it (e.g. AllThreads, Ticks) —
	// ticks and allThreads are passed in for exactly this reason.
	Tick(c *Core, running *Thread, ticks uint64, allThreads []*Thread)

	// SetPriority implements the semantics of a direct
	// Core.SetPriority call: PS updates BasePriority and recomputes
	// CurrentPriority against any held-lock donation; MLFQS ignores the
	// call entirely, since priority there is fully derived.
	SetPriority(t *Thread, base int)

	// Renice recomputes t's priority immediately after its Nice field
	// has changed. MLFQS recomputes from nice/recent_cpu; PS is a no-op,
	// since priority there never depends on niceness.
	Renice(t *Thread)
}
