// Command kernel-sim boots a single simulated core, installs the
// requested scheduling policy, starts the timer driver, and runs a small
// demo workload (priority donation to a lock holder, and a handful of
// MLFQS-style background threads) while serving scheduler metrics over
// HTTP. It exists to exercise kernel/thread end to end, the way a real
// Pintos boot exercises threads/thread.c and threads/synch.c together.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dijkstracula/pintos-go/internal/kassert"
	"github.com/dijkstracula/pintos-go/internal/klog"
	"github.com/dijkstracula/pintos-go/internal/kmetrics"
	"github.com/dijkstracula/pintos-go/kernel/thread"
	"github.com/dijkstracula/pintos-go/kernel/thread/policy"
	"github.com/dijkstracula/pintos-go/kernel/timer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("kernel-sim", flag.ExitOnError)
	var (
		scheduler   = fs.String("scheduler", "ps", "scheduling policy to boot: ps or mlfqs")
		listen      = fs.String("listen", ":6060", "address to serve /metrics on")
		tickPeriod  = fs.Duration("tick", 10*time.Millisecond, "simulated timer tick period")
		demoSeconds = fs.Duration("demo-duration", 2*time.Second, "how long to run the demo workload before exiting")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("KERNEL_SIM")); err != nil {
		return errors.Wrap(err, "parsing flags")
	}

	var sched thread.Policy
	switch *scheduler {
	case "ps":
		sched = policy.NewPS()
	case "mlfqs":
		sched = policy.NewMLFQS()
	default:
		return fmt.Errorf("unknown -scheduler %q: want ps or mlfqs", *scheduler)
	}

	logger := klog.New(os.Stderr)
	reg := prometheus.NewRegistry()
	metrics := kmetrics.New(reg)

	core := thread.NewCore(sched, logger, metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *listen, Handler: mux}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "debug http server")
		}
		return nil
	})

	driver := timer.NewDriver(core)
	driver.Run(*tickPeriod)

	g.Go(func() error {
		runDemo(core)
		return nil
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-time.After(*demoSeconds):
		}
		driver.Stop()
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// runDemo drives two illustrative scenarios on core: a single-level
// priority donation under PS (a high-priority thread waits on a lock a
// low-priority thread holds), and a set of background threads that
// give an MLFQS boot something to recompute recent_cpu and load_avg
// from. Either scenario is harmless to run under the other policy — PS
// ignores niceness, MLFQS ignores donation — so runDemo doesn't need to
// branch on core.PolicyName().
func runDemo(core *thread.Core) {
	lockA := thread.NewLock(core)
	lockB := thread.NewLock(core)
	proceed := thread.NewSemaphore(core, 0)
	done := make(chan struct{})

	// low grabs both locks, then parks on proceed so a higher-priority
	// waiter has something to donate into before low gives them back up.
	_, err := core.Create("donation-demo-low", thread.PriDefault+1, func() {
		lockA.Acquire()
		lockB.Acquire()
		proceed.Down()
		lockB.Release()
		lockA.Release()
		close(done)
	})
	kassert.Require(err == nil, "runDemo: failed to create low-priority holder: %v", err)

	for i := 0; i < 3; i++ {
		n := i
		_, err := core.Create(fmt.Sprintf("background-%d", n), thread.PriDefault-1, func() {
			for i := 0; i < 5; i++ {
				core.Cooperate()
			}
		})
		kassert.Require(err == nil, "runDemo: failed to create background thread %d: %v", n, err)
	}

	// high blocks behind low on lockA, donating its priority to low under
	// PS (a no-op under MLFQS, which doesn't donate).
	_, err = core.Create("donation-demo-high", thread.PriDefault+10, func() {
		lockA.Acquire()
		lockA.Release()
	})
	kassert.Require(err == nil, "runDemo: failed to create high-priority waiter: %v", err)

	proceed.Up()
	<-done
}
