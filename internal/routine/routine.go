// Package routine defines the contract a user-supplied task driver
// implements. A routine is polymorphic over three optional capabilities;
// the host/worker make no assumption that any of them exist.
package routine

import "icc.tech/aptaskd/internal/report"

// Required is the sentinel default value marking an argument as mandatory
// (the source's "__required__" sentinel).
var Required = struct{ required bool }{required: true}

// IsRequired reports whether a default value is the Required sentinel.
func IsRequired(v any) bool {
	_, ok := v.(struct{ required bool })
	return ok
}

// ArgSpec declares one positional parameter of a routine. Ordering within a
// Descriptor.Args slice is significant: positional arguments bind by index.
type ArgSpec struct {
	Name    string
	Default any // Required if IsRequired(Default)
}

// Initializer is the optional first capability of a routine. A routine
// without it is treated as "successfully completed no-op".
type Initializer interface {
	Initialize() error
}

// Processor is the optional iteration-step capability of a routine. A
// routine without it is treated as "successfully completed no-op" for a
// single loop iteration.
//
// Process may return a raw value (int, float64, string, report.Report) that
// the worker loop normalizes per report.Normalize, or it may return nil and
// instead mutate the Report returned by its own Report() method — the
// worker loop reads Report() whenever Process returns nil. Both reporting
// styles described in the routine contract are supported this way.
type Processor interface {
	Process() any
}

// Aborter is the optional cooperative-cancellation capability of a routine.
// A routine without it falls through to forced termination (the worker loop
// simply breaks without waiting for the routine to acknowledge).
type Aborter interface {
	Abort() error
}

// Routine is the marker interface every task driver implements. Routines
// opt into Initializer, Processor, and Aborter independently via type
// assertion in the worker loop — there is no base class to inherit from,
// only the axis of which capabilities are present.
type Routine interface {
	// Report returns the routine's own snapshot. The worker loop reads this
	// after an Abort call and after every Process step that returns nil,
	// and transmits a copy.
	Report() report.Report
}

// Factory constructs a new Routine instance from already order-bound
// argument values (defaults already substituted by the caller).
type Factory func(args []any) (Routine, error)

// Descriptor is a named routine's complete registration: its argument
// spec, help text, and constructor. Immutable after registration.
type Descriptor struct {
	Name string
	Args []ArgSpec
	Help string
	New  Factory
}

// BindArgs resolves a start request's positional arguments against a
// Descriptor's ArgSpec, substituting defaults and rejecting omitted
// required positions. This is the tightening described in the routine
// contract: the source's lenient behavior (silently running with fewer
// arguments than declared) is replaced with an explicit error.
func (d Descriptor) BindArgs(supplied []any) ([]any, error) {
	bound := make([]any, len(d.Args))
	for i, spec := range d.Args {
		switch {
		case i < len(supplied):
			bound[i] = supplied[i]
		case IsRequired(spec.Default):
			return nil, &MissingArgumentError{Name: spec.Name}
		default:
			bound[i] = spec.Default
		}
	}
	return bound, nil
}

// MissingArgumentError is returned by BindArgs when a required positional
// argument was not supplied.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return "missing required argument: " + e.Name
}
