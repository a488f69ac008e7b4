// Package daemon wires the manager, net frontend, and registry into one
// running process (C8): it owns the control channel between the net
// frontend and the manager, the tick loop, and the OS signal handling
// that drives graceful shutdown and config reload.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"icc.tech/aptaskd/internal/config"
	"icc.tech/aptaskd/internal/control"
	"icc.tech/aptaskd/internal/eventlog"
	logpkg "icc.tech/aptaskd/internal/log"
	"icc.tech/aptaskd/internal/manager"
	"icc.tech/aptaskd/internal/metrics"
	"icc.tech/aptaskd/internal/netfrontend"
	"icc.tech/aptaskd/internal/registry"
)

// Daemon owns the process lifecycle: config, logging, metrics, the
// manager/frontend pair joined by the control channel, and the
// tick-interval scheduling loop.
type Daemon struct {
	config     *config.GlobalConfig
	configPath string
	pidFile    string

	registry *registry.Registry
	events   eventlog.Sink

	manager  *manager.Manager
	frontend *netfrontend.Frontend
	listener net.Listener

	toDaemon   chan control.Message
	fromDaemon chan control.Message

	metricsServer *metrics.Server

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal
}

// New loads configuration and constructs a Daemon, binding its TCP
// listener. It does not start any goroutines yet.
func New(configPath, pidFile string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	reg := registry.Default()
	loader := registry.NewLoader(registry.LoaderConfig{
		Mode: modeFor(cfg.Directories.Routines),
		Path: cfg.Directories.Routines,
	}, reg)
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load routines: %w", err)
	}

	events, err := eventlog.Open(cfg.EventLog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	toDaemon := make(chan control.Message, 64)
	fromDaemon := make(chan control.Message, 64)

	mgr := manager.New(manager.Config{
		NumProcs: cfg.NumProcs,
		Users:    cfg.Keys.Users,
		Admins:   cfg.Keys.Admins,
		Registry: reg,
		Spawner:  NewWorkerSpawner(cfg.Directories.Data),
		Events:   events,
	})

	d := &Daemon{
		config:       cfg,
		configPath:   configPath,
		pidFile:      pidFile,
		registry:     reg,
		events:       events,
		manager:      mgr,
		frontend:     netfrontend.New(listener, toDaemon, fromDaemon),
		listener:     listener,
		toDaemon:     toDaemon,
		fromDaemon:   fromDaemon,
		shutdownChan: make(chan struct{}),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

func modeFor(dir string) registry.LoadMode {
	if dir == "" {
		return registry.StaticMode
	}
	return registry.DynamicMode
}

// Start initializes logging, writes the PID file, starts the metrics
// server, and launches the frontend and request-dispatch goroutines.
func (d *Daemon) Start() error {
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	slog.Info("starting aptaskd", "addr", d.listener.Addr().String(), "config", d.configPath)

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := d.startMetrics(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	go d.frontend.Run(d.ctx)
	go d.dispatchRequests()

	slog.Info("aptaskd started")
	return nil
}

// dispatchRequests relays every request frame from the frontend into the
// manager and the reply back, deliberately the only place the two
// components touch each other.
func (d *Daemon) dispatchRequests() {
	for {
		select {
		case msg, ok := <-d.toDaemon:
			if !ok {
				return
			}
			reply := d.manager.HandleRequest(msg.Payload)
			select {
			case d.fromDaemon <- control.Message{Kind: control.Data, SID: msg.SID, Payload: reply}:
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Run drives the tick loop and OS signal handling, blocking until
// shutdown is triggered by SIGTERM/SIGINT or TriggerShutdown. SIGHUP
// reloads configuration.
func (d *Daemon) Run() error {
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	interval, err := time.ParseDuration(d.config.TickInterval)
	if err != nil || interval <= 0 {
		slog.Warn("invalid tick_interval, defaulting to 200ms", "value", d.config.TickInterval)
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("aptaskd running", "tick_interval", interval)

	for {
		select {
		case <-ticker.C:
			d.manager.Tick()

		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				slog.Info("received shutdown signal", "signal", sig)
				d.Stop()
				return nil
			case syscall.SIGHUP:
				slog.Info("received reload signal")
				if err := d.Reload(); err != nil {
					slog.Error("failed to reload config", "error", err)
				}
			}

		case <-d.shutdownChan:
			slog.Info("shutdown triggered by request")
			d.Stop()
			return nil

		case <-d.ctx.Done():
			d.Stop()
			return d.ctx.Err()
		}
	}
}

// TriggerShutdown requests graceful shutdown from outside the run loop.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
	}
}

// Reload re-reads configuration, hot-reloading the logging level/format
// and leaving everything else (listener address, num_procs, directories)
// unchanged until restart.
func (d *Daemon) Reload() error {
	slog.Info("reloading configuration", "path", d.configPath)

	newCfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	oldLevel, oldFormat := d.config.Log.Level, d.config.Log.Format
	d.config = newCfg
	if err := d.initLogging(); err != nil {
		slog.Error("failed to reinitialize logging", "error", err)
	} else if newCfg.Log.Level != oldLevel || newCfg.Log.Format != oldFormat {
		slog.Info("log configuration reloaded", "level", newCfg.Log.Level, "format", newCfg.Log.Format)
	}
	return nil
}

// Stop performs the daemon shutdown sequence: stop accepting requests,
// drain the manager, stop auxiliary servers, and clean up on-disk state.
func (d *Daemon) Stop() {
	slog.Info("initiating graceful shutdown")

	select {
	case d.fromDaemon <- control.Message{Kind: control.Quit}:
	default:
	}

	d.manager.Stop()

	if d.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Stop(shutdownCtx); err != nil {
			slog.Error("error stopping metrics server", "error", err)
		}
	}

	d.cancel()
	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}

	_ = d.listener.Close()
	_ = d.events.Close()

	if err := d.removePIDFile(); err != nil {
		slog.Error("error removing PID file", "error", err)
	}

	logpkg.Flush()
	slog.Info("aptaskd stopped gracefully")
}

func (d *Daemon) initLogging() error {
	if err := logpkg.Init(d.config.Log); err != nil {
		return err
	}
	slog.SetDefault(logpkg.Get())
	return nil
}

func (d *Daemon) startMetrics() error {
	if !d.config.Metrics.Enabled {
		slog.Info("metrics server disabled")
		return nil
	}
	d.metricsServer = metrics.NewServer(d.config.Metrics.Listen, d.config.Metrics.Path)
	return d.metricsServer.Start(d.ctx)
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(d.pidFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", d.pidFile, err)
	}
	return nil
}

func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file %s: %w", d.pidFile, err)
	}
	return nil
}
