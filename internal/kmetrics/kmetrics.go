// Package kmetrics exposes the scheduler's runtime counters and gauges
// through prometheus/client_golang, mirroring sourcegraph-zoekt's pattern of
// a small metrics struct constructed once and registered against a
// prometheus.Registerer at boot, then threaded into whatever does the work.
package kmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter/gauge the kernel updates as it runs.
type Metrics struct {
	ContextSwitches  prometheus.Counter
	Donations        prometheus.Counter
	ThreadsCreated   prometheus.Counter
	ReadyQueueLength prometheus.Gauge
	LoadAvg          prometheus.Gauge
}

// New constructs a Metrics and, if reg is non-nil, registers every metric
// against it. Pass a nil Registerer in tests that don't care about export.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ContextSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kernel_context_switches_total",
			Help: "Total number of scheduler context switches.",
		}),
		Donations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kernel_priority_donations_total",
			Help: "Total number of priority donations applied along a lock's holder chain.",
		}),
		ThreadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kernel_threads_created_total",
			Help: "Total number of threads created since boot.",
		}),
		ReadyQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_ready_queue_length",
			Help: "Number of threads currently ready to run.",
		}),
		LoadAvg: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_mlfqs_load_avg",
			Help: "MLFQS system load average (x1000, integer gauge of the fixed-point value rounded).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ContextSwitches, m.Donations, m.ThreadsCreated, m.ReadyQueueLength, m.LoadAvg)
	}
	return m
}
