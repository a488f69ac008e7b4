// Command aptaskd runs the task-execution daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"icc.tech/aptaskd/internal/daemon"

	_ "icc.tech/aptaskd/internal/routines"
)

var (
	configFile string
	pidFile    string
	foreground bool
)

var rootCmd = &cobra.Command{
	Use:   "aptaskd",
	Short: "aptaskd accepts task-execution requests and dispatches worker subprocesses",
	Long: `aptaskd listens on a TCP socket for task requests (index/start/stop/active),
running each accepted task in an isolated worker subprocess under a fair FIFO
scheduling policy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !foreground {
			return daemon.Background(configFile, pidFile, os.Args[0])
		}
		d, err := daemon.New(configFile, pidFile)
		if err != nil {
			return fmt.Errorf("failed to initialize daemon: %w", err)
		}
		if err := d.Start(); err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}
		return d.Run()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Send SIGTERM to the daemon named by the PID file and wait for it to exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.StopByPIDFile(pidFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/aptaskd/config.yml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&pidFile, "pidfile", "p", "/var/run/aptaskd.pid", "PID file path")
	rootCmd.Flags().BoolVarP(&foreground, "foreground", "f", true, "run in the foreground; false re-execs detached and returns once the socket is ready")

	rootCmd.AddCommand(stopCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
