package registry

import (
	"fmt"
	"path/filepath"
	"plugin"
)

// LoadMode selects how a Loader populates a Registry.
type LoadMode string

const (
	// StaticMode assumes every routine already registered itself via its
	// own init() (reached through a blank import of the built-in routines
	// package). This is the default mode.
	StaticMode LoadMode = "static"

	// DynamicMode globs a directory for *.so files built with
	// `go build -buildmode=plugin` and opens each one, looking up a
	// `Register(*registry.Registry) error` symbol. Mirrors the source's
	// "introspecting a routine directory" at startup.
	DynamicMode LoadMode = "dynamic"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Mode LoadMode
	Path string // directory to scan in DynamicMode
}

// Loader populates a Registry at daemon startup.
type Loader struct {
	config LoaderConfig
	reg    *Registry
}

// NewLoader creates a Loader bound to reg.
func NewLoader(config LoaderConfig, reg *Registry) *Loader {
	return &Loader{config: config, reg: reg}
}

// Load runs the configured discovery mode.
func (l *Loader) Load() error {
	if l.config.Mode == DynamicMode {
		return l.loadDynamic()
	}
	return nil // StaticMode: routines already registered via init()
}

func (l *Loader) loadDynamic() error {
	files, err := filepath.Glob(filepath.Join(l.config.Path, "*.so"))
	if err != nil {
		return fmt.Errorf("registry: failed to glob routine directory %s: %w", l.config.Path, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("registry: no routine plugins found in %s", l.config.Path)
	}

	for _, file := range files {
		if err := l.loadOne(file); err != nil {
			return fmt.Errorf("registry: failed to load %s: %w", file, err)
		}
	}
	return nil
}

func (l *Loader) loadOne(file string) error {
	p, err := plugin.Open(file)
	if err != nil {
		return err
	}

	sym, err := p.Lookup("Register")
	if err != nil {
		return fmt.Errorf("plugin does not export Register: %w", err)
	}

	register, ok := sym.(func(*Registry) error)
	if !ok {
		return fmt.Errorf("plugin Register has the wrong signature")
	}

	return register(l.reg)
}
