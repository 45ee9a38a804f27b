// Package kassert implements the kernel's fail-stop contract checking.
// Per the synchronization core's error-handling design, almost everything
// that can go wrong here is a programming-contract violation (releasing a
// lock you don't hold, re-acquiring one you already do, calling a
// blocking primitive from interrupt context) rather than a recoverable
// runtime condition: there is no sensible recovery, only a clear, annotated
// panic. Require wraps the violation with github.com/pkg/errors so the
// panic value carries a stack trace a recovered top-level handler can print.
package kassert

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dijkstracula/pintos-go/internal/klog"
)

// Require panics with a stack-annotated error if cond is false. The format
// string and args describe which invariant was violated.
func Require(cond bool, format string, args ...any) {
	if cond {
		return
	}
	err := errors.Wrap(fmt.Errorf(format, args...), "kernel contract violation")
	panic(err)
}

// RequireLogged behaves like Require but also logs the violation through l
// before panicking, for call sites that want the event on record even if
// the panic is later recovered higher up the stack.
func RequireLogged(l *klog.Logger, cond bool, format string, args ...any) {
	if cond {
		return
	}
	err := errors.Wrap(fmt.Errorf(format, args...), "kernel contract violation")
	if l != nil {
		l.Panic(err)
	}
	panic(err)
}
