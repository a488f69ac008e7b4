// Package manager implements the scheduler/manager (C5): request handling,
// authorization, and the per-tick start/reap cycle over the task FIFO.
package manager

import (
	"context"
	"encoding/json"
	"time"

	"icc.tech/aptaskd/internal/eventlog"
	"icc.tech/aptaskd/internal/fifo"
	"icc.tech/aptaskd/internal/handle"
	"icc.tech/aptaskd/internal/metrics"
	"icc.tech/aptaskd/internal/registry"
	"icc.tech/aptaskd/internal/report"
)

// Request is one decoded request frame.
type Request struct {
	Key       string `json:"key"`
	Request   string `json:"request"`
	Name      string `json:"name,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
	TaskID    uint64 `json:"taskid,omitempty"`
}

// ArgumentView is one entry of an index response's argument spec.
type ArgumentView struct {
	Name    string `json:"name"`
	Default any    `json:"default,omitempty"`
}

// IndexEntry describes one routine in the task index.
type IndexEntry struct {
	Name      string         `json:"name"`
	Arguments []ArgumentView `json:"arguments"`
	Help      string         `json:"help"`
}

// ActiveEntry describes one handle in an "active" response.
type ActiveEntry struct {
	Position int     `json:"position"`
	TaskID   uint64  `json:"taskid"`
	State    string  `json:"state"`
	Status   string  `json:"status,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// Response is the wire shape of every reply; unused fields are omitted.
type Response struct {
	Status   string        `json:"status"`
	Response string        `json:"response,omitempty"`
	Message  string        `json:"message,omitempty"`
	TaskID   *uint64       `json:"taskid,omitempty"`
	Index    []IndexEntry  `json:"index,omitempty"`
	Active   []ActiveEntry `json:"active,omitempty"`
}

// Config configures a Manager at construction.
type Config struct {
	NumProcs int
	Users    []string
	Admins   []string
	Registry *registry.Registry
	Spawner  handle.Spawner
	Events   eventlog.Sink // defaults to eventlog.Discard when nil
}

// Manager is the scheduler: it validates and authorizes requests, owns the
// task FIFO, and ticks handles through their lifecycle.
type Manager struct {
	fifo     *fifo.FIFO
	registry *registry.Registry
	users    map[string]bool
	spawner  handle.Spawner
	events   eventlog.Sink
}

// New constructs a Manager from cfg.
func New(cfg Config) *Manager {
	users := make(map[string]bool, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u] = true
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.Default()
	}
	events := cfg.Events
	if events == nil {
		events = eventlog.Discard
	}
	return &Manager{
		fifo:     fifo.New(cfg.NumProcs),
		registry: reg,
		users:    users,
		spawner:  cfg.Spawner,
		events:   events,
	}
}

func (m *Manager) authorized(key string) bool {
	if len(m.users) == 0 {
		return true
	}
	return m.users[key]
}

// HandleRequest decodes, authorizes, validates, and dispatches one request
// frame, returning the encoded response frame.
func (m *Manager) HandleRequest(frame []byte) []byte {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil || req.Request == "" {
		metrics.RequestsTotal.WithLabelValues("unknown", "error").Inc()
		return m.encode(Response{Status: "error", Message: "malformed request"})
	}

	if !m.authorized(req.Key) {
		metrics.RequestsTotal.WithLabelValues(req.Request, "error").Inc()
		return m.encode(Response{Status: "error", Message: "invalid auth key"})
	}

	var resp Response
	switch req.Request {
	case "index":
		resp = m.handleIndex()
	case "start":
		resp = m.handleStart(req)
	case "stop":
		resp = m.handleStop(req)
	case "active":
		resp = m.handleActive(req)
	default:
		resp = Response{Status: "error", Message: "malformed request"}
	}
	metrics.RequestsTotal.WithLabelValues(req.Request, resp.Status).Inc()
	return m.encode(resp)
}

func (m *Manager) encode(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"status":"error","message":"internal error encoding response"}`)
	}
	return data
}

func (m *Manager) handleIndex() Response {
	descs := m.registry.Index()
	entries := make([]IndexEntry, len(descs))
	for i, d := range descs {
		args := make([]ArgumentView, len(d.Args))
		for j, a := range d.Args {
			args[j] = ArgumentView{Name: a.Name, Default: a.Default}
		}
		entries[i] = IndexEntry{Name: d.Name, Arguments: args, Help: d.Help}
	}
	return Response{Status: "ok", Response: "index", Index: entries}
}

func (m *Manager) handleStart(req Request) Response {
	desc, ok := m.registry.Get(req.Name)
	if !ok {
		return Response{Status: "error", Response: "start", Message: "invalid task name"}
	}

	bound, err := desc.BindArgs(req.Arguments)
	if err != nil {
		return Response{Status: "error", Response: "start", Message: err.Error()}
	}

	group := req.Key
	id := m.fifo.Add(func(id uint64) *handle.Handle {
		return handle.New(id, desc.Name, bound, group, m.spawner)
	})
	_ = m.events.Emit(eventlog.Event{Time: time.Now(), TaskID: id, Routine: desc.Name, Group: group, Kind: "enqueued"})
	return Response{Status: "ok", Response: "start", TaskID: &id}
}

func (m *Manager) handleStop(req Request) Response {
	h, ok := m.fifo.Get(req.TaskID)
	if !ok {
		return Response{Status: "error", Response: "stop", TaskID: &req.TaskID}
	}
	if h.State() == handle.StateStopping {
		// Already stopped once; the second stop is not destructive.
		return Response{Status: "error", Response: "stop", TaskID: &req.TaskID}
	}

	// A handle still in INIT never started a subprocess and will never enter
	// the active window's STOPPING-reap path, so discard it here instead of
	// leaving it to occupy an active slot forever once it slides forward.
	discard := h.State() == handle.StateInit
	h.Stop()
	if discard {
		m.fifo.Remove(h.ID)
	}
	_ = m.events.Emit(eventlog.Event{Time: time.Now(), TaskID: h.ID, Routine: h.Name, Group: h.Group, Kind: "stopped"})
	return Response{Status: "ok", Response: "stop", TaskID: &req.TaskID}
}

func (m *Manager) handleActive(req Request) Response {
	entries := make([]ActiveEntry, 0, m.fifo.Len())
	for pos, h := range m.fifo.Iter() {
		if h.Group != req.Key {
			continue
		}
		state := "inactive"
		if pos < len(m.fifo.ActiveIDs()) {
			state = "active"
		}
		entry := ActiveEntry{Position: pos, TaskID: h.ID, State: state}
		if h.HasReport() {
			r := h.LastReport()
			entry.Status = r.Status.String()
			entry.Progress = r.Progress
			entry.Message = r.Message
		}
		entries = append(entries, entry)
	}
	return Response{Status: "ok", Response: "active", Active: entries}
}

// Tick runs one scheduling pass: drain status from every handle, then start
// queued handles that have entered the active window, and reap handles
// that are stopping-and-exited or whose terminal report was already cached
// before this pass. A terminal report first drained by this pass stays
// visible to "active" until the next tick reaps the handle.
func (m *Manager) Tick() {
	start := time.Now()
	defer func() { metrics.ObserveTick(time.Since(start)) }()

	doneBefore := make(map[uint64]bool)
	for _, h := range m.fifo.Iter() {
		doneBefore[h.ID] = h.LastReport().IsDone()
		h.GetStatus()
	}

	for _, id := range m.fifo.ActiveIDs() {
		h, ok := m.fifo.Get(id)
		if !ok {
			continue
		}
		switch {
		case h.State() == handle.StateInit:
			if err := h.Start(); err != nil {
				m.fifo.Remove(id)
			} else {
				_ = m.events.Emit(eventlog.Event{Time: time.Now(), TaskID: h.ID, Routine: h.Name, Group: h.Group, Kind: "started"})
			}
		case h.State() == handle.StateStopping:
			// A handle stopped before it ever started has no subprocess to
			// wait on and Exited() is permanently false for it; reap it
			// immediately instead of waiting for a liveness signal that
			// will never come.
			if !h.Started() || h.Exited() {
				_ = h.Join(context.Background())
				m.fifo.Remove(id)
			}
		case doneBefore[id]:
			m.recordOutcome(h)
			_ = h.Join(context.Background())
			m.fifo.Remove(id)
		}
	}

	metrics.QueueDepth.Set(float64(m.fifo.Len()))
	metrics.ActiveTasks.Set(float64(len(m.fifo.ActiveIDs())))
}

func (m *Manager) recordOutcome(h *handle.Handle) {
	r := h.LastReport()
	outcome := "done"
	if r.Status == report.StatusError {
		outcome = "error"
	}
	metrics.RoutineReportsTotal.WithLabelValues(h.Name, outcome).Inc()
	_ = m.events.Emit(eventlog.Event{
		Time: time.Now(), TaskID: h.ID, Routine: h.Name, Group: h.Group,
		Kind: outcome, Status: r.Status.String(), Progress: r.Progress, Message: r.Message,
	})
}

// Stop performs the daemon shutdown sequence: signal every active handle,
// discard queued ones that never started, then join everything remaining.
func (m *Manager) Stop() {
	for _, h := range m.fifo.Iter() {
		if h.IsActive() {
			h.Stop()
		} else {
			m.fifo.Remove(h.ID)
		}
	}
	for _, h := range m.fifo.Iter() {
		_ = h.Join(context.Background())
		m.fifo.Remove(h.ID)
	}
}
