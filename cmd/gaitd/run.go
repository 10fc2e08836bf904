package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gait_lock/internal/app"
	"github.com/relabs-tech/gait_lock/internal/config"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the authentication daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Println("starting gait lock daemon")
			return app.RunDaemon(cmd.Context(), config.Get())
		},
	}
}
