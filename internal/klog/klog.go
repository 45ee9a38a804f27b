// Package klog wraps a zerolog.Logger with kernel-specific event methods,
// so call sites in kernel/thread read as kernel events ("thread created",
// "priority donated") rather than raw formatted strings.
package klog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the kernel's structured event sink.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w (os.Stderr if nil) at info level.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return &Logger{zl: zl}
}

// Nop returns a Logger that discards every event, for tests that don't
// assert on log output and don't want it cluttering `go test -v`.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithLevel returns a copy of l logging at the given level.
func (l *Logger) WithLevel(level zerolog.Level) *Logger {
	return &Logger{zl: l.zl.Level(level)}
}

// ThreadCreated logs a new thread entering the scheduler.
func (l *Logger) ThreadCreated(id int, name string, priority int) {
	l.zl.Info().Int("tid", id).Str("name", name).Int("priority", priority).Msg("thread created")
}

// ThreadStateChange logs a TCB state transition.
func (l *Logger) ThreadStateChange(id int, from, to string) {
	l.zl.Debug().Int("tid", id).Str("from", from).Str("to", to).Msg("thread state change")
}

// ThreadReaped logs a dying thread being reclaimed by its successor.
func (l *Logger) ThreadReaped(id int, name string) {
	l.zl.Debug().Int("tid", id).Str("name", name).Msg("thread reaped")
}

// Donated logs a priority donation along a lock's holder chain.
func (l *Logger) Donated(donorID, holderID, priority int) {
	l.zl.Debug().Int("donor_tid", donorID).Int("holder_tid", holderID).Int("priority", priority).Msg("priority donated")
}

// MLFQSRecompute logs a per-second MLFQS load-average/recent-CPU pass.
func (l *Logger) MLFQSRecompute(loadAvg string, readyThreads int) {
	l.zl.Debug().Str("load_avg", loadAvg).Int("ready_threads", readyThreads).Msg("mlfqs recompute")
}

// Panic logs a fail-stop contract violation immediately before the panic
// that follows it unwinds the goroutine.
func (l *Logger) Panic(err error) {
	l.zl.Error().Err(err).Msg("kernel contract violation, failing stop")
}
