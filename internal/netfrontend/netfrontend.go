// Package netfrontend implements the net frontend (C7): accepts one
// request per TCP connection and correlates it with the daemon's response
// via the control channel, never calling into the manager directly.
//
// The source's single-threaded cooperative poll loop over (listener,
// control channel, per-connection sockets) is realized here as goroutines
// exchanging values over channels rather than a literal readiness-wait
// loop — the idiomatic Go translation of "suspend on whichever of several
// sources is ready next" (grounded on the teacher's internal/command UDS
// server's accept-loop-plus-worker-goroutine shape).
package netfrontend

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	"icc.tech/aptaskd/internal/control"
	"icc.tech/aptaskd/internal/session"
)

// MaxRequestSize bounds an accepted request body. A request of exactly
// this many bytes is accepted; reading one byte more without hitting EOF
// is the oversized-request condition.
const MaxRequestSize = 2048

var oversizedResponse = []byte(`{"status":"error","message":"request too large"}`)

// connRead is one connection's single inbound read, handed from its
// reader goroutine to the frontend's event loop.
type connRead struct {
	conn     net.Conn
	payload  []byte
	oversize bool
}

// Frontend is the host-side TCP listener and session correlator.
type Frontend struct {
	listener net.Listener
	sessions *session.Table

	toDaemon   chan<- control.Message
	fromDaemon <-chan control.Message

	accepted chan net.Conn
	reads    chan connRead
}

// New wraps an already-bound listener. toDaemon carries DATA messages
// frontend -> daemon; fromDaemon carries DATA (responses) and QUIT
// daemon -> frontend.
func New(listener net.Listener, toDaemon chan<- control.Message, fromDaemon <-chan control.Message) *Frontend {
	return &Frontend{
		listener:   listener,
		sessions:   session.New(),
		toDaemon:   toDaemon,
		fromDaemon: fromDaemon,
		accepted:   make(chan net.Conn),
		reads:      make(chan connRead),
	}
}

// Run drives the accept loop and the event loop until ctx is cancelled or
// a QUIT message arrives on fromDaemon. It closes every tracked client
// socket before returning, idempotently.
func (f *Frontend) Run(ctx context.Context) {
	go f.acceptLoop(ctx)

	for {
		select {
		case conn, ok := <-f.accepted:
			if !ok {
				f.closeAllSessions()
				return
			}
			go f.readOne(conn)

		case r := <-f.reads:
			f.handleRead(r)

		case msg := <-f.fromDaemon:
			if msg.Kind == control.Quit {
				f.closeAllSessions()
				return
			}
			f.handleResponse(msg)

		case <-ctx.Done():
			f.closeAllSessions()
			return
		}
	}
}

func (f *Frontend) acceptLoop(ctx context.Context) {
	defer close(f.accepted)
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("netfrontend: accept error", "error", err)
			return
		}
		select {
		case f.accepted <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// readOne performs a connection's single inbound read: up to
// MaxRequestSize+1 bytes, one request per connection.
func (f *Frontend) readOne(conn net.Conn) {
	buf := make([]byte, MaxRequestSize+1)
	n, err := conn.Read(buf)
	if n == 0 {
		_ = conn.Close()
		return
	}
	if err != nil && err != io.EOF {
		_ = conn.Close()
		return
	}

	r := connRead{conn: conn, payload: buf[:n]}
	if n == MaxRequestSize+1 {
		r.oversize = true
	}
	f.reads <- r
}

func (f *Frontend) handleRead(r connRead) {
	if r.oversize {
		_, _ = r.conn.Write(oversizedResponse)
		_ = r.conn.Close()
		return
	}

	sid := f.sessions.Add(r.conn, time.Now())
	f.toDaemon <- control.Message{Kind: control.Data, SID: sid, Payload: r.payload}
}

func (f *Frontend) handleResponse(msg control.Message) {
	entry, ok := f.sessions.Get(msg.SID)
	if !ok {
		return
	}
	_, _ = entry.Conn.Write(msg.Payload)
	_ = entry.Conn.Close()
	f.sessions.Remove(msg.SID)
}

func (f *Frontend) closeAllSessions() {
	for _, id := range f.sessions.IDs() {
		if entry, ok := f.sessions.Get(id); ok {
			_ = entry.Conn.Close()
			f.sessions.Remove(id)
		}
	}
}
