package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/shellbridge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of shellbridge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shellbridge version %s\n", strings.TrimSpace(shellbridge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
