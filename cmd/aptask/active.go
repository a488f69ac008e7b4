package main

import (
	"github.com/spf13/cobra"
)

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List the requesting key's tasks and their FIFO position/status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := send(serverAddr, timeout, request{Key: authKey, Request: "active"})
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}
