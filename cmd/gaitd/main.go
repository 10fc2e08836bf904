// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gait_lock/internal/app"
	"github.com/relabs-tech/gait_lock/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "gaitd",
		Short: "Gait-signature door lock",
		Long: `gaitd pulls accelerometer walks from a wearable sensor unit, compares
their frequency profile with the enrolled user's and drives the lock.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./gait_config.txt", "path to configuration file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(forgetCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		// Defaults plus GAIT_ overrides.
		cfgFile = ""
	}
	if err := config.InitGlobal(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.SetupLogging(config.Get().DeviceID)
	return nil
}
