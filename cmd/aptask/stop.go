package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <taskid>",
	Short: "Request cooperative cancellation of a running task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return err
		}
		resp, err := send(serverAddr, timeout, request{Key: authKey, Request: "stop", TaskID: id})
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}
