// Package eventlog defines the event log sink contract (§1, out of scope:
// "only its interface matters") and a file-backed default implementation.
// A caller that wants a different sink (a message bus, a remote collector)
// only needs to satisfy Sink; the manager never assumes a concrete type.
package eventlog

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is one structured fact about a task's lifecycle: enqueued,
// started, stopped, or completed with a terminal report.
type Event struct {
	Time     time.Time `json:"time"`
	TaskID   uint64    `json:"taskid"`
	Routine  string    `json:"routine"`
	Group    string    `json:"group"`
	Kind     string    `json:"kind"` // enqueued / started / stopped / done / error
	Status   string    `json:"status,omitempty"`
	Progress float64   `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Sink accepts Events. Implementations must be safe for concurrent use;
// the manager calls Emit from its own goroutine on every tick and from
// request handlers on others.
type Sink interface {
	Emit(e Event) error
	Close() error
}

// discard is the zero-value sink used when no event log is configured.
type discard struct{}

func (discard) Emit(Event) error { return nil }
func (discard) Close() error     { return nil }

// Discard is a Sink that does nothing. Useful as a default when
// event_log.path is empty.
var Discard Sink = discard{}

// fileSink appends newline-delimited JSON Events to an io.WriteCloser.
type fileSink struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
}

// NewFileSink wraps w, typically an append-mode *os.File, as a Sink.
func NewFileSink(w io.WriteCloser) Sink {
	return &fileSink{w: w, enc: json.NewEncoder(w)}
}

func (s *fileSink) Emit(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(e)
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
