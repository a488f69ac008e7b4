package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTmpConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write tmp config: %v", err)
	}
	return p
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
aptaskd:
  host: "0.0.0.0"
  port: 9900
  num_procs: 3
  tick_interval: "100ms"
  directories:
    routines: "/etc/aptaskd/routines"
    data: "/var/lib/aptaskd"
  keys:
    users: ["u1", "u2"]
  log:
    level: "debug"
    format: "json"
  metrics:
    enabled: true
    listen: "0.0.0.0:9901"
    path: "/metrics"
  event_log:
    path: "/var/lib/aptaskd/events.log"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 9900 {
		t.Errorf("Port = %d, want 9900", cfg.Port)
	}
	if cfg.NumProcs != 3 {
		t.Errorf("NumProcs = %d, want 3", cfg.NumProcs)
	}
	if cfg.Directories.Routines != "/etc/aptaskd/routines" {
		t.Errorf("Directories.Routines = %q", cfg.Directories.Routines)
	}
	if len(cfg.Keys.Users) != 2 || cfg.Keys.Users[0] != "u1" {
		t.Errorf("Keys.Users = %v, want [u1 u2]", cfg.Keys.Users)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Errorf("Metrics.Enabled = false, want true")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
aptaskd:
  port: 9800
  num_procs: 1
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host default = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.TickInterval != "200ms" {
		t.Errorf("TickInterval default = %q, want 200ms", cfg.TickInterval)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level default = %q, want info", cfg.Log.Level)
	}
	if len(cfg.Keys.Users) != 0 {
		t.Errorf("Keys.Users default = %v, want empty (allow-all)", cfg.Keys.Users)
	}
}

func TestLoadRejectsInvalidNumProcs(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
aptaskd:
  port: 9800
  num_procs: 0
`))
	if err == nil {
		t.Fatal("expected validation error for num_procs: 0")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
aptaskd:
  port: 70000
  num_procs: 1
`))
	if err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("expected error loading missing config file")
	}
}
