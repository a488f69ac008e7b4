package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	startArgsJSON string
	startArgsFile string
)

var startCmd = &cobra.Command{
	Use:   "start <routine>",
	Short: "Start a task running the named routine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if startArgsJSON != "" && startArgsFile != "" {
			return fmt.Errorf("--args and --args-file are mutually exclusive")
		}

		var routineArgs []any
		switch {
		case startArgsFile != "":
			parsed, err := loadArgsFile(startArgsFile)
			if err != nil {
				return err
			}
			routineArgs = parsed
		case startArgsJSON != "":
			if err := json.Unmarshal([]byte(startArgsJSON), &routineArgs); err != nil {
				return err
			}
		}

		resp, err := send(serverAddr, timeout, request{
			Key: authKey, Request: "start", Name: args[0], Arguments: routineArgs,
		})
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}

func init() {
	startCmd.Flags().StringVar(&startArgsJSON, "args", "", `routine arguments as a JSON array, e.g. --args '[10]'`)
	startCmd.Flags().StringVar(&startArgsFile, "args-file", "", "read routine arguments from a JSON or YAML file (.yaml/.yml uses YAML)")
}
