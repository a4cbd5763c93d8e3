package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of evernote-drive",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "evernote-drive %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
