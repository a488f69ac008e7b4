package worker

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/aptaskd/internal/ipc"
	"icc.tech/aptaskd/internal/report"
)

// bareRoutine implements only routine.Routine (no Initializer, Processor,
// or Aborter), exercising the "capability absent" paths.
type bareRoutine struct {
	rep report.Report
}

func (b *bareRoutine) Report() report.Report { return b.rep }

// steppingRoutine implements Processor, counting up to n steps before
// reporting done. It never implements Aborter unless wrapped.
type steppingRoutine struct {
	n, i int
	rep  report.Report
}

func (s *steppingRoutine) Report() report.Report { return s.rep }

func (s *steppingRoutine) Process() any {
	s.i++
	if s.i >= s.n {
		return report.Report{Status: report.StatusDone, Progress: 1.0}
	}
	return report.Report{Status: report.StatusRunning, Progress: float64(s.i) / float64(s.n)}
}

// stubbornRoutine never finishes on its own and cooperatively aborts by
// flipping its own Report to DONE, unless stuck is set, in which case it
// accepts the abort but keeps running.
type stubbornRoutine struct {
	rep      report.Report
	aborted  bool
	stuck    bool
	abortErr error
}

func (s *stubbornRoutine) Report() report.Report { return s.rep }

func (s *stubbornRoutine) Process() any {
	if s.aborted && !s.stuck {
		s.rep = report.Report{Status: report.StatusDone, Progress: 1.0}
		return nil
	}
	return report.Report{Status: report.StatusRunning, Progress: 0.1}
}

func (s *stubbornRoutine) Abort() error {
	if s.abortErr != nil {
		return s.abortErr
	}
	s.aborted = true
	return nil
}

func newPipes(t *testing.T) (*ipc.CommandDecoder, io.WriteCloser, func(), *bytesCollector) {
	t.Helper()
	cmdR, cmdW := io.Pipe()
	collector := &bytesCollector{}
	cleanup := func() { _ = cmdW.Close() }
	return ipc.NewCommandDecoder(cmdR), cmdW, cleanup, collector
}

// bytesCollector is a trivial io.Writer collecting everything written,
// safe to read from only after the writer goroutine has stopped.
type bytesCollector struct {
	data []byte
}

func (b *bytesCollector) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func TestRun_MissingProcessorCompletesImmediately(t *testing.T) {
	cmds, cmdW, cleanup, out := newPipes(t)
	defer cleanup()

	r := &bareRoutine{rep: report.Init()}
	statuses := ipc.NewStatusEncoder(out)

	runWithWatchdog(r, cmds, statuses, NewWatchdog(time.Minute))
	_ = cmdW.Close()

	reports := decodeAll(t, out.data)
	require.Len(t, reports, 1)
	assert.Equal(t, report.StatusDone, reports[0].Status)
	assert.Equal(t, 1.0, reports[0].Progress)
}

func TestRun_ProcessesUntilDone(t *testing.T) {
	cmds, cmdW, cleanup, out := newPipes(t)
	defer cleanup()

	r := &steppingRoutine{n: 3, rep: report.Init()}
	statuses := ipc.NewStatusEncoder(out)

	runWithWatchdog(r, cmds, statuses, NewWatchdog(time.Minute))
	_ = cmdW.Close()

	reports := decodeAll(t, out.data)
	require.Len(t, reports, 3)
	assert.Equal(t, report.StatusDone, reports[len(reports)-1].Status)
}

func TestRun_AbortWithoutCapabilityForcesTermination(t *testing.T) {
	cmds, cmdW, cleanup, out := newPipes(t)
	defer cleanup()

	r := &steppingRoutine{n: 1000, rep: report.Init()}
	statuses := ipc.NewStatusEncoder(out)

	enc := ipc.NewCommandEncoder(cmdW)
	go func() { _ = enc.Send(ipc.Command{Kind: ipc.Abort}) }()

	done := make(chan struct{})
	go func() {
		runWithWatchdog(r, cmds, statuses, NewWatchdog(time.Minute))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate after ABORT with no Abort capability")
	}
}

func TestRun_CooperativeAbortReachesDone(t *testing.T) {
	cmds, cmdW, cleanup, out := newPipes(t)
	defer cleanup()

	r := &stubbornRoutine{rep: report.Init()}
	statuses := ipc.NewStatusEncoder(out)

	enc := ipc.NewCommandEncoder(cmdW)
	go func() { _ = enc.Send(ipc.Command{Kind: ipc.Abort}) }()

	done := make(chan struct{})
	go func() {
		runWithWatchdog(r, cmds, statuses, NewWatchdog(time.Minute))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate after cooperative abort")
	}
	assert.True(t, r.aborted)
}

func TestRun_StuckAbortExpiresWatchdog(t *testing.T) {
	cmds, cmdW, cleanup, out := newPipes(t)
	defer cleanup()

	r := &stubbornRoutine{rep: report.Init(), stuck: true}
	statuses := ipc.NewStatusEncoder(out)

	enc := ipc.NewCommandEncoder(cmdW)
	go func() { _ = enc.Send(ipc.Command{Kind: ipc.Abort}) }()

	dog := NewWatchdog(0) // expires immediately once armed
	done := make(chan struct{})
	go func() {
		runWithWatchdog(r, cmds, statuses, dog)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate after watchdog expiry")
	}
}

func decodeAll(t *testing.T, data []byte) []report.Report {
	t.Helper()
	dec := ipc.NewStatusDecoder(bytes.NewReader(data))
	var out []report.Report
	for {
		r, ok := dec.Next()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}
