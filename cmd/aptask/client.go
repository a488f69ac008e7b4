package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// request is one frame sent to aptaskd. Fields are marshaled sparsely:
// only the ones relevant to the given Request name are typically set.
type request struct {
	Key       string `json:"key"`
	Request   string `json:"request"`
	Name      string `json:"name,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
	TaskID    uint64 `json:"taskid,omitempty"`
}

// send opens one connection, writes req, reads the single response frame,
// and closes the connection — the wire protocol is one request per
// connection, exactly as the daemon's net frontend expects.
func send(addr string, timeout time.Duration, req request) (json.RawMessage, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if _, err := conn.Write(body); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if c, ok := conn.(*net.TCPConn); ok {
		_ = c.CloseWrite()
	}

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return json.RawMessage(data), nil
}
