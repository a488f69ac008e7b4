// Package ipc implements the command/status duplex between the host
// process and a worker subprocess: newline-delimited JSON over the
// worker's stdin (commands, host -> worker) and stdout (status, worker ->
// host). Grounded on the teacher's JSON-RPC-over-UDS framing in
// internal/command/uds_server.go, adapted from a request/response duplex
// to two independent one-way streams.
package ipc

import (
	"bufio"
	"encoding/json"
	"io"

	"icc.tech/aptaskd/internal/report"
)

// CommandKind is the tag of a Command value.
type CommandKind string

const (
	// Continue is a no-op heartbeat; the worker loop never blocks waiting
	// for one, it only matters that Abort is distinguishable from "nothing
	// pending".
	Continue CommandKind = "CONTINUE"
	// Abort requests cooperative cancellation of the routine.
	Abort CommandKind = "ABORT"
)

// Command is sent from host to worker on the command channel.
type Command struct {
	Kind CommandKind `json:"kind"`
}

// CommandEncoder writes newline-delimited JSON Commands to a worker's stdin.
type CommandEncoder struct {
	enc *json.Encoder
}

// NewCommandEncoder wraps w (typically a worker's stdin pipe).
func NewCommandEncoder(w io.Writer) *CommandEncoder {
	return &CommandEncoder{enc: json.NewEncoder(w)}
}

// Send writes one Command.
func (e *CommandEncoder) Send(c Command) error {
	return e.enc.Encode(c)
}

// CommandDecoder reads newline-delimited JSON Commands from a worker's
// stdin, for use inside the worker binary.
type CommandDecoder struct {
	scanner *bufio.Scanner
}

// NewCommandDecoder wraps r (typically os.Stdin inside the worker).
func NewCommandDecoder(r io.Reader) *CommandDecoder {
	return &CommandDecoder{scanner: bufio.NewScanner(r)}
}

// Next blocks for the next Command, or returns false at EOF/error.
func (d *CommandDecoder) Next() (Command, bool) {
	if !d.scanner.Scan() {
		return Command{}, false
	}
	var c Command
	if err := json.Unmarshal(d.scanner.Bytes(), &c); err != nil {
		return Command{}, false
	}
	return c, true
}

// StatusEncoder writes newline-delimited JSON Reports to a worker's stdout,
// for use inside the worker binary.
type StatusEncoder struct {
	enc *json.Encoder
}

// NewStatusEncoder wraps w (typically os.Stdout inside the worker).
func NewStatusEncoder(w io.Writer) *StatusEncoder {
	return &StatusEncoder{enc: json.NewEncoder(w)}
}

// Send writes one Report.
func (e *StatusEncoder) Send(r report.Report) error {
	return e.enc.Encode(r)
}

// StatusDecoder reads newline-delimited JSON Reports from a worker's
// stdout, for use by the host-side handle.
type StatusDecoder struct {
	scanner *bufio.Scanner
}

// NewStatusDecoder wraps r (typically a worker's stdout pipe).
func NewStatusDecoder(r io.Reader) *StatusDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	return &StatusDecoder{scanner: s}
}

// Next blocks for the next Report, or returns false at EOF/error.
func (d *StatusDecoder) Next() (report.Report, bool) {
	if !d.scanner.Scan() {
		return report.Report{}, false
	}
	var r report.Report
	if err := json.Unmarshal(d.scanner.Bytes(), &r); err != nil {
		return report.Report{}, false
	}
	return r, true
}
