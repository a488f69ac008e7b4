package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "List every routine the daemon can run, with its argument spec",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := send(serverAddr, timeout, request{Key: authKey, Request: "index"})
		if err != nil {
			return err
		}
		return printResponse(cmd, resp)
	},
}

func printResponse(cmd *cobra.Command, resp json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp, "", "  "); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(resp))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
