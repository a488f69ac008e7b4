// Command aptask-worker runs a single routine instance to completion,
// exchanging commands and status reports with its parent aptaskd process
// over stdin/stdout. It is never invoked directly by a user; the manager
// spawns one per running task.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"icc.tech/aptaskd/internal/ipc"
	"icc.tech/aptaskd/internal/registry"
	"icc.tech/aptaskd/internal/worker"

	_ "icc.tech/aptaskd/internal/routines"
)

func main() {
	routineName := flag.String("routine", "", "registered routine name to run")
	argsJSON := flag.String("args", "[]", "JSON array of already-bound routine arguments")
	flag.Parse()

	if *routineName == "" {
		fmt.Fprintln(os.Stderr, "aptask-worker: --routine is required")
		os.Exit(2)
	}

	var args []any
	if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
		fmt.Fprintf(os.Stderr, "aptask-worker: invalid --args: %v\n", err)
		os.Exit(2)
	}

	desc, ok := registry.Default().Get(*routineName)
	if !ok {
		fmt.Fprintf(os.Stderr, "aptask-worker: unknown routine %q\n", *routineName)
		os.Exit(1)
	}

	r, err := desc.New(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aptask-worker: constructing routine %q: %v\n", *routineName, err)
		os.Exit(1)
	}

	cmds := ipc.NewCommandDecoder(os.Stdin)
	statuses := ipc.NewStatusEncoder(os.Stdout)
	worker.Run(r, cmds, statuses)
}
