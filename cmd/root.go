package cmd

import (
	"fmt"
	"os"

	"soundwave/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "soundwave",
	Short: "Soundwave is a music catalog and streaming backend.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
