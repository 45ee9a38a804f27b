// Package timer drives a kernel/thread.Core's clock, standing in for the
// periodic timer-interrupt hardware the scheduler is built around. One
// Driver tick corresponds to one call to Core.Tick.
package timer

import (
	"sync"
	"time"

	"github.com/dijkstracula/pintos-go/kernel/thread"
)

// Driver periodically calls Tick on a Core until stopped.
type Driver struct {
	core   *thread.Core
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewDriver constructs a Driver for core. It does not start ticking until
// Run is called.
func NewDriver(core *thread.Core) *Driver {
	return &Driver{core: core}
}

// Run starts a background goroutine that calls core.Tick once per period,
// matching thread.TimerFreq ticks per simulated second when period is
// time.Second/thread.TimerFreq. Run returns immediately; call Stop to halt
// the driver and wait for its goroutine to exit.
func (d *Driver) Run(period time.Duration) {
	d.ticker = time.NewTicker(period)
	d.done = make(chan struct{})
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.ticker.C:
				d.core.Tick()
			case <-d.done:
				return
			}
		}
	}()
}

// Stop halts the driver and waits for its goroutine to exit. Safe to call
// at most once per Run.
func (d *Driver) Stop() {
	if d.ticker == nil {
		return
	}
	d.ticker.Stop()
	close(d.done)
	d.wg.Wait()
}
