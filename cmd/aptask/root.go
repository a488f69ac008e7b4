// Command aptask is the CLI client for aptaskd: it opens one TCP
// connection per request and prints the daemon's JSON response.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	authKey    string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "aptask",
	Short: "aptask talks to an aptaskd daemon over its TCP wire protocol",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "addr", "a", "127.0.0.1:9800", "aptaskd address")
	rootCmd.PersistentFlags().StringVarP(&authKey, "key", "k", "", "authorization key")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "request timeout")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(activeCmd)
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "aptask: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "aptask: %s\n", msg)
	}
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError("command failed", err)
	}
}
