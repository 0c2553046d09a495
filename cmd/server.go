package cmd

import (
	"soundwave/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Soundwave HTTP server",
	Long:  `Start the Soundwave HTTP server providing the catalog, auth, upload and player APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
