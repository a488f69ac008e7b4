package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// Open returns a file-backed Sink appending to path, creating parent
// directories as needed. An empty path yields Discard.
func Open(path string) (Sink, error) {
	if path == "" {
		return Discard, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("eventlog: creating directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening %s: %w", path, err)
	}
	return NewFileSink(f), nil
}
