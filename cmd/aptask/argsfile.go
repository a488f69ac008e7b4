package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadArgsFile reads routine arguments from a file, choosing the decoder by
// extension the same way the daemon's predecessor picked task-config formats:
// .yaml/.yml goes through yaml.Unmarshal, everything else through JSON.
func loadArgsFile(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read args file: %w", err)
	}

	var args []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("parse args file as yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("parse args file as json: %w", err)
		}
	}
	return args, nil
}
