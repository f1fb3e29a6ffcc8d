package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crop-yield-dashboard",
	Short: "Crop yield prediction dashboard",
	Long: `crop-yield-dashboard serves a web dashboard that forwards farm inputs to a
yield prediction service, charts the result against regional averages and shows
the prediction history kept by the history service.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, projectCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
