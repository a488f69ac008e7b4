// Package routines holds the built-in routines compiled into both the
// daemon (for index discovery) and the worker binary (for execution).
// Grounded on the source's routines/develop.py + tasks/devtask.py: a
// routine that counts from 0 to a configurable "loops" bound, yielding
// fractional progress at each step.
package routines

import (
	"fmt"

	"icc.tech/aptaskd/internal/registry"
	"icc.tech/aptaskd/internal/report"
	"icc.tech/aptaskd/internal/routine"
)

func init() {
	if err := registry.Register(devDescriptor()); err != nil {
		panic(err)
	}
}

func devDescriptor() routine.Descriptor {
	return routine.Descriptor{
		Name: "dev",
		Args: []routine.ArgSpec{
			{Name: "loops", Default: 10},
		},
		Help: "Development routine: counts from 0 to loops, reporting i/loops progress each step.",
		New:  newDevRoutine,
	}
}

// devRoutine is the reference routine used throughout the daemon's own
// test suite and the worked examples in the task contract.
type devRoutine struct {
	loops int
	i     int
	rep   report.Report
}

func newDevRoutine(args []any) (routine.Routine, error) {
	loops, err := toInt(args[0])
	if err != nil {
		return nil, fmt.Errorf("dev: invalid loops argument: %w", err)
	}
	if loops <= 0 {
		return nil, fmt.Errorf("dev: loops must be positive, got %d", loops)
	}
	return &devRoutine{loops: loops, rep: report.Init()}, nil
}

func (d *devRoutine) Report() report.Report { return d.rep }

func (d *devRoutine) Process() any {
	if d.i >= d.loops {
		d.rep = report.Report{Status: report.StatusDone, Progress: 1.0}
		return nil
	}
	d.i++
	d.rep = report.Report{Status: report.StatusRunning, Progress: float64(d.i) / float64(d.loops)}
	if d.i == d.loops {
		d.rep = report.Report{Status: report.StatusDone, Progress: 1.0}
	}
	return nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
