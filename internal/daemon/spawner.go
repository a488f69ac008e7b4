package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"icc.tech/aptaskd/internal/handle"
)

// workerBinaryName is the worker subprocess executable the manager spawns
// one copy of per running task.
const workerBinaryName = "aptask-worker"

// NewWorkerSpawner returns a handle.Spawner that execs the worker binary
// once per task, passing the routine name and its bound arguments as a
// JSON-encoded flag.
//
// Grounded on the teacher's internal/daemon/manager.go self-daemonization
// logic (findDaemonExecutable: look beside the current executable, then
// fall back to PATH) — generalized from "find and re-exec myself as a
// background daemon" to "find and exec the worker helper binary".
// dataDir becomes the worker's working directory.
func NewWorkerSpawner(dataDir string) handle.Spawner {
	return func(routineName string, args []any) (*exec.Cmd, error) {
		bin, err := findWorkerExecutable()
		if err != nil {
			return nil, err
		}
		encodedArgs, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encoding worker arguments: %w", err)
		}

		cmd := exec.Command(bin, "--routine", routineName, "--args", string(encodedArgs))
		if dataDir != "" {
			cmd.Dir = dataDir
		}
		cmd.Stderr = os.Stderr
		return cmd, nil
	}
}

func findWorkerExecutable() (string, error) {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), workerBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(workerBinaryName); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s executable not found beside aptaskd or on PATH", workerBinaryName)
}
