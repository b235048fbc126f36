package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydroponics/protocol"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the trace link version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hydroctl trace link %s\n", protocol.Version)
	},
}
