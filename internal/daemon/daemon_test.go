package daemon

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDaemon_StartRunStopIntegration(t *testing.T) {
	tmp := t.TempDir()
	pidFile := filepath.Join(tmp, "aptaskd.pid")

	configPath := writeConfig(t, `
aptaskd:
  host: "127.0.0.1"
  port: 0
  num_procs: 2
  tick_interval: "20ms"
  metrics:
    enabled: false
  event_log:
    path: ""
`)

	d, err := New(configPath, pidFile)
	require.NoError(t, err)

	require.NoError(t, d.Start())

	if _, err := os.Stat(pidFile); err != nil {
		t.Errorf("PID file was not created: %v", err)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- d.Run() }()

	time.Sleep(50 * time.Millisecond)
	d.TriggerShutdown()

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop within timeout")
	}

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("PID file was not removed after shutdown")
	}
}

func TestDaemon_IndexRequestRoundTrips(t *testing.T) {
	tmp := t.TempDir()
	configPath := writeConfig(t, `
aptaskd:
  host: "127.0.0.1"
  port: 0
  num_procs: 1
  tick_interval: "20ms"
  metrics:
    enabled: false
  event_log:
    path: ""
`)

	d, err := New(configPath, filepath.Join(tmp, "aptaskd.pid"))
	require.NoError(t, err)
	require.NoError(t, d.Start())
	defer d.Stop()

	addr := d.listener.Addr().String()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"key":"anyone","request":"index"}`))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(buf[:n], &resp))
	require.Equal(t, "ok", resp.Status)
}

func TestDaemon_ReloadAppliesNewLogLevel(t *testing.T) {
	tmp := t.TempDir()
	configPath := writeConfig(t, `
aptaskd:
  host: "127.0.0.1"
  port: 0
  num_procs: 1
  tick_interval: "20ms"
  log:
    level: info
  metrics:
    enabled: false
  event_log:
    path: ""
`)

	d, err := New(configPath, filepath.Join(tmp, "aptaskd.pid"))
	require.NoError(t, err)
	require.NoError(t, d.Start())
	defer d.Stop()

	require.Equal(t, "info", d.config.Log.Level)

	require.NoError(t, os.WriteFile(configPath, []byte(`
aptaskd:
  host: "127.0.0.1"
  port: 0
  num_procs: 1
  tick_interval: "20ms"
  log:
    level: debug
  metrics:
    enabled: false
  event_log:
    path: ""
`), 0o644))

	require.NoError(t, d.Reload())
	require.Equal(t, "debug", d.config.Log.Level)
}
