// Package report defines the Report value shared across the host/worker
// boundary and the rules for normalizing a routine's raw iteration result
// into one.
package report

import "fmt"

// Status is the lifecycle state of a single task as observed through a
// Report snapshot.
type Status int

const (
	// StatusError indicates the routine failed; Progress is always 1.0.
	StatusError Status = -1
	// StatusInit indicates the routine has not yet produced a step; Progress is always 0.0.
	StatusInit Status = 0
	// StatusRunning indicates the routine is iterating; 0.0 < Progress < 1.0.
	StatusRunning Status = 1
	// StatusDone indicates the routine completed successfully; Progress is always 1.0.
	StatusDone Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "ERROR"
	case StatusInit:
		return "INIT"
	case StatusRunning:
		return "RUNNING"
	case StatusDone:
		return "DONE"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalJSON renders Status as its name rather than its integer value, to
// keep the wire protocol self-describing.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts either the name or the integer form.
func (s *Status) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"ERROR"`:
		*s = StatusError
	case `"INIT"`:
		*s = StatusInit
	case `"RUNNING"`:
		*s = StatusRunning
	case `"DONE"`:
		*s = StatusDone
	default:
		var n int
		if _, err := fmt.Sscanf(string(data), "%d", &n); err != nil {
			return fmt.Errorf("report: invalid status %q", data)
		}
		*s = Status(n)
	}
	return nil
}

// Report is a (status, progress, message) snapshot transmitted from a
// worker to the host. It is created by a routine, mutated only by the
// routine, and transmitted by value across the IPC boundary.
//
// Invariants (Normalize produces reports that hold them from every raw
// value except a Report, which it copies unchanged):
//
//	Status == StatusDone  => Progress == 1.0
//	Status == StatusError => Progress == 1.0
//	Status == StatusInit  => Progress == 0.0
//	Status == StatusRunning => 0.0 < Progress < 1.0
type Report struct {
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
}

// IsDone reports whether the routine has reached a terminal state.
func (r Report) IsDone() bool {
	return r.Status == StatusDone || r.Status == StatusError
}

// Init is the Report produced before a routine has run its first step.
func Init() Report {
	return Report{Status: StatusInit, Progress: 0.0}
}

// Normalize converts a raw value returned by a routine's Process step into
// a well-formed Report, per the table in the routine contract:
//
//	int(0)            -> DONE, progress 1.0
//	int(>0)           -> ERROR, progress 1.0
//	int(<0)           -> reserved; treated as DONE
//	float64(0.0)      -> INIT, progress 0.0
//	float64(0,1)      -> RUNNING, progress set
//	float64(>=1.0)    -> DONE, progress 1.0
//	float64(<0.0)     -> ERROR, progress 1.0
//	string            -> DONE, progress 1.0, message set
//	Report            -> fields copied
//	nil               -> DONE, progress 1.0, no message
//	anything else     -> DONE, progress 1.0, message = fmt.Sprint(v)
func Normalize(v any) Report {
	switch x := v.(type) {
	case Report:
		return x
	case int:
		return normalizeInt(x)
	case int64:
		return normalizeInt(int(x))
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case string:
		return Report{Status: StatusDone, Progress: 1.0, Message: x}
	case nil:
		return Report{Status: StatusDone, Progress: 1.0}
	default:
		return Report{Status: StatusDone, Progress: 1.0, Message: fmt.Sprint(v)}
	}
}

func normalizeInt(n int) Report {
	switch {
	case n == 0:
		return Report{Status: StatusDone, Progress: 1.0}
	case n > 0:
		return Report{Status: StatusError, Progress: 1.0}
	default: // n < 0: reserved, treat as DONE
		return Report{Status: StatusDone, Progress: 1.0}
	}
}

func normalizeFloat(f float64) Report {
	switch {
	case f == 0.0:
		return Report{Status: StatusInit, Progress: 0.0}
	case f < 0.0:
		return Report{Status: StatusError, Progress: 1.0}
	case f >= 1.0:
		return Report{Status: StatusDone, Progress: 1.0}
	default:
		return Report{Status: StatusRunning, Progress: f}
	}
}
