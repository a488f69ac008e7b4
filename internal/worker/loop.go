// Package worker implements the routine execution loop that runs inside a
// worker subprocess: resolve the routine, run its lifecycle, and exchange
// commands/status with the host over the IPC duplex.
package worker

import (
	"time"

	"icc.tech/aptaskd/internal/ipc"
	"icc.tech/aptaskd/internal/report"
	"icc.tech/aptaskd/internal/routine"
)

// AbortWatchdogTimeout bounds the delay between ABORT delivery and
// subprocess exit.
const AbortWatchdogTimeout = 60 * time.Second

// Run drives a single routine instance to completion, reading commands
// from cmds and writing status to statuses. It returns once the routine
// reaches a terminal Report, the watchdog fires after a stuck abort, or a
// missing Abort capability forces termination.
//
// Invariants preserved (see the routine contract):
//  1. the loop terminates in bounded time after ABORT is received;
//  2. Process is invoked at least once per iteration unless a forced
//     termination short-circuits it;
//  3. the Report transmitted on an iteration reflects that iteration's
//     Process/Abort outcome, never a stale one.
func Run(r routine.Routine, cmds *ipc.CommandDecoder, statuses *ipc.StatusEncoder) {
	runWithWatchdog(r, cmds, statuses, NewWatchdog(AbortWatchdogTimeout))
}

func runWithWatchdog(r routine.Routine, cmds *ipc.CommandDecoder, statuses *ipc.StatusEncoder, dog *Watchdog) {
	cmdCh := commandPump(cmds)

	if initer, ok := r.(routine.Initializer); ok {
		_ = initer.Initialize() // error swallowed: treated as no-op per contract
	}

	current := r.Report()

	for !current.IsDone() {
		if dog.Expired(time.Now()) {
			break
		}

		if cmd, ok := tryReceive(cmdCh); ok && cmd.Kind == ipc.Abort {
			aborter, hasAbort := r.(routine.Aborter)
			if !hasAbort {
				break // no Abort capability: forced termination
			}
			if err := aborter.Abort(); err != nil {
				break // Abort failed: forced termination
			}
			dog.Start(time.Now())
			current = r.Report()
		}

		proc, hasProcess := r.(routine.Processor)
		if !hasProcess {
			// "successfully completed no-op": nothing left to iterate.
			current = report.Report{Status: report.StatusDone, Progress: 1.0}
		} else if raw := proc.Process(); raw != nil {
			current = report.Normalize(raw)
		} else {
			current = r.Report()
		}

		trySend(statuses, current)
	}
}

func commandPump(cmds *ipc.CommandDecoder) <-chan ipc.Command {
	ch := make(chan ipc.Command, 1)
	go func() {
		defer close(ch)
		for {
			c, ok := cmds.Next()
			if !ok {
				return
			}
			select {
			case ch <- c:
			default:
				// Host only ever sends one ABORT; a redundant/duplicate
				// command arriving while one is already pending is
				// harmless to drop.
			}
		}
	}()
	return ch
}

// tryReceive is the non-blocking command read: try_receive(command) in the
// contract.
func tryReceive(ch <-chan ipc.Command) (ipc.Command, bool) {
	select {
	case c, ok := <-ch:
		return c, ok
	default:
		return ipc.Command{}, false
	}
}

// trySend writes one status report synchronously: the write blocks while
// the host is not reading the worker's stdout, and no report is dropped.
// Write errors are ignored and are not fatal to the loop.
func trySend(statuses *ipc.StatusEncoder, r report.Report) {
	_ = statuses.Send(r)
}
