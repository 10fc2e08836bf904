package main

import (
	"errors"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gait_lock/internal/app"
	"github.com/relabs-tech/gait_lock/internal/config"
)

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <identity>",
		Short: "Remove every stored walk of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(cmd.Context(), config.Get())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no dataset backend configured (DATASET_BACKEND=none)")
			}
			if c, ok := store.(io.Closer); ok {
				defer c.Close()
			}
			if err := store.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Printf("forgot identity %q", args[0])
			return nil
		},
	}
}
