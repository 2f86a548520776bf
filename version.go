package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kathyli05/kathboard/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of kathboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kathboard version %s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
